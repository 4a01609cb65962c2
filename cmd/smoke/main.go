package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type check struct {
	name     string
	path     string
	status   int
	contains string
}

func main() {
	baseURL := flag.String("base", "http://localhost:3000", "server base URL")
	wait := flag.Duration("wait", 2*time.Second, "delay before the first request")
	flag.Parse()

	time.Sleep(*wait)

	fmt.Println("Starting smoke test against", *baseURL)

	checks := []check{
		{name: "Health", path: "/healthz", status: http.StatusOK, contains: `"ok"`},
		{name: "Zip codes page", path: "/", status: http.StatusOK, contains: "<table>"},
		{name: "Contacts page", path: "/contacts", status: http.StatusOK, contains: "<table>"},
		{name: "Add zip code form", path: "/update-cobj", status: http.StatusOK, contains: `name="name"`},
		{name: "Metrics", path: "/metrics", status: http.StatusOK, contains: "groundtruth_http_requests_total"},
	}

	client := &http.Client{Timeout: 15 * time.Second}
	failed := 0
	for i, c := range checks {
		fmt.Printf("%d. %s...\n", i+1, c.name)
		if err := run(client, *baseURL, c); err != nil {
			fmt.Printf("FAILED: %s: %v\n", c.name, err)
			failed++
			continue
		}
		fmt.Printf("PASSED: %s\n", c.name)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func run(client *http.Client, baseURL string, c check) error {
	resp, err := client.Get(strings.TrimSuffix(baseURL, "/") + c.path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != c.status {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if !strings.Contains(string(body), c.contains) {
		return fmt.Errorf("response does not contain %q", c.contains)
	}
	return nil
}
