package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tenntenn/minilang/backend/api"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>minilang</title>
</head>
<body>
    <h1>minilang</h1>
    <p>Connect RPC Server is running.</p>
    <p>RPC Endpoints:</p>
    <ul>
        <li><code>POST %s</code></li>
        <li><code>POST %s</code></li>
        <li><code>POST /api/compile</code> (plain JSON)</li>
    </ul>
</body>
</html>`

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	opts, err := optionsFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	mux := http.NewServeMux()

	// Create Connect RPC handler
	handler := api.NewToolchainServiceHandler(opts...)

	// Register Connect RPC endpoints
	path, connectHandler := api.NewToolchainServiceHTTPHandler(handler)
	mux.Handle(path, connectHandler)
	mux.Handle("/api/compile", api.CompileHandler(handler))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, indexHTML, api.CompileProcedure, api.RunProcedure)
	})

	addr := ":" + port
	log.Printf("Server starting on http://localhost%s", addr)

	// Use h2c to support HTTP/2 without TLS
	if err := http.ListenAndServe(addr, h2c.NewHandler(corsMiddleware(mux), &http2.Server{})); err != nil {
		log.Fatal(err)
	}
}

// optionsFromEnv reads MINILANG_MAX_STEPS, MINILANG_MAX_DEPTH and
// MINILANG_CACHE_SIZE
func optionsFromEnv() ([]api.Option, error) {
	var opts []api.Option

	if v := os.Getenv("MINILANG_MAX_STEPS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid MINILANG_MAX_STEPS %q", v)
		}
		opts = append(opts, api.WithMaxSteps(n))
	} else {
		opts = append(opts, api.WithMaxSteps(10_000_000))
	}

	if v := os.Getenv("MINILANG_MAX_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MINILANG_MAX_DEPTH %q", v)
		}
		opts = append(opts, api.WithMaxDepth(n))
	}

	if v := os.Getenv("MINILANG_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid MINILANG_CACHE_SIZE %q", v)
		}
		opts = append(opts, api.WithCacheSize(n))
	}

	return opts, nil
}

// corsMiddleware adds CORS headers for development
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Type, Connect-Protocol-Version")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
