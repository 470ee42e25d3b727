// Manual poke at the GitHub client: fetches profile stats for a username and
// prints the aggregation the reputation engine would see.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/repchain/repchain/internal/config"
	"github.com/repchain/repchain/pkg/github"
)

var defaultClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 15 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	},
}

func main() {
	username := flag.String("user", "torvalds", "GitHub username to look up")
	flag.Parse()

	ctx := context.Background()

	client, err := github.NewClient(config.GitHubConfig{
		BaseURL: "https://api.github.com",
		Token:   os.Getenv("REPCHAIN_GITHUB_TOKEN"),
		Timeout: 10 * time.Second,
	}, defaultClient)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	exists, err := client.Verify(ctx, *username)
	if err != nil {
		log.Fatal(err)
	}
	if !exists {
		log.Fatalf("account %q not found", *username)
	}

	stats, err := client.GetStats(ctx, *username)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("repos: %d\nstars: %d\nforks: %d\naccount age: %d days\nlanguages: %v\n",
		stats.TotalRepos, stats.TotalStars, stats.TotalForks, stats.AccountAgeDays, stats.Languages)
}
