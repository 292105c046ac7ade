// Command proxyfetch fetches a batch of URLs through the fetch-proxy API
// and writes one JSON result per line to stdout, in input order.
//
// URLs are read one per line from the file given as the first argument,
// or from stdin when no argument is given. Blank lines and lines starting
// with '#' are skipped.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/retailwatch/proxyfetch/pkg/batch"
	"github.com/retailwatch/proxyfetch/pkg/client"
	"github.com/retailwatch/proxyfetch/pkg/logging"
)

func main() {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnvBool("LOG_PRETTY", false),
		Output: os.Stderr,
	})

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("proxyfetch failed")
	}
}

func run() error {
	// Configuration from environment
	apiKey := os.Getenv("PROXYFETCH_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("PROXYFETCH_API_KEY is required")
	}

	cfg := client.DefaultConfig(apiKey)
	if baseURL := os.Getenv("PROXYFETCH_BASE_URL"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.Timeout = getEnvDuration("REQUEST_TIMEOUT", cfg.Timeout)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL)

	// Redis is optional: without it the page cache and shared credit
	// tracking are simply disabled.
	if redisURL := getEnv("REDIS_URL", ""); redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: redisURL,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", redisURL, err)
		}
		defer redisClient.Close()
		cfg.Redis = redisClient
		log.Info().Str("addr", redisURL).Msg("Connected to Redis")
	}

	proxyClient, err := client.New(cfg)
	if err != nil {
		return fmt.Errorf("create proxy client: %w", err)
	}
	defer proxyClient.Close()

	fetcher := batch.NewFetcher(proxyClient, batch.Config{
		Concurrency: getEnvInt("CONCURRENCY", batch.DefaultConcurrency),
		MaxRetries:  getEnvInt("MAX_RETRIES", batch.DefaultMaxRetries),
		Retry:       client.DefaultRetryConfig(),
	})

	urls, err := readURLs(os.Args[1:])
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		log.Warn().Msg("No URLs to fetch")
		return nil
	}

	// Optional metrics endpoint for long batches.
	if addr := getEnv("METRICS_ADDR", ""); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Warn().Err(err).Msg("Metrics server stopped")
			}
		}()
		log.Info().Str("addr", addr).Msg("Serving metrics")
	}

	ctx := context.Background()
	if deadline := getEnvDuration("BATCH_TIMEOUT", 0); deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	opts := client.Options{
		RenderJS: getEnvBool("RENDER_JS", false),
	}

	results := fetcher.FetchMany(ctx, urls, opts)

	enc := json.NewEncoder(os.Stdout)
	failed := 0
	for _, result := range results {
		if !result.Usable() {
			failed++
		}
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	log.Info().
		Int("urls", len(urls)).
		Int("failed", failed).
		Msg("Done")

	return nil
}

// readURLs collects target URLs from the given file or from stdin.
func readURLs(args []string) ([]string, error) {
	var r io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("open url file: %w", err)
		}
		defer f.Close()
		r = f
	}

	return parseURLList(r)
}

// parseURLList reads one URL per line, skipping blanks and comments.
func parseURLList(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return urls, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
