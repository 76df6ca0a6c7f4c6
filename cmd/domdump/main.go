// Command domdump fetches a page and prints its element outline plus what the
// heuristic section extractors recover from it. Useful when a listing's
// features or FAQs come out empty.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BAODAU/whop-wss-streaming/dom"
	"github.com/BAODAU/whop-wss-streaming/fetcher"
	"github.com/BAODAU/whop-wss-streaming/sections"
	"github.com/BAODAU/whop-wss-streaming/target"
)

func main() {
	maxDepth := flag.Int("depth", 3, "maximum outline depth")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <url-or-slug>\n", os.Args[0])
		os.Exit(2)
	}

	pageURL, _, err := target.Normalize(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	client := fetcher.New(fetcher.Options{Timeout: 30 * time.Second})
	res, err := client.Get(context.Background(), pageURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	tree := dom.Build(res.Body)
	outline(tree.Root, 0, *maxDepth)

	fmt.Println()
	for _, section := range sections.Features(tree) {
		fmt.Printf("FEATURES %q: %d items, %d paragraphs\n",
			section.Heading, len(section.Items), len(section.Paragraphs))
	}
	for _, section := range sections.Faqs(tree) {
		fmt.Printf("FAQ %q: %d entries\n", section.Heading, len(section.Entries))
	}
	if reviews := sections.Reviews(tree); reviews != nil {
		fmt.Printf("REVIEWS: %+v\n", *reviews)
	}
	for _, option := range sections.PricingOptions(tree) {
		fmt.Printf("PRICING: %s\n", option)
	}
}

func outline(n *dom.Node, depth, maxDepth int) {
	if depth > maxDepth {
		return
	}
	for _, child := range n.Children {
		attrs := ""
		if id := child.Attr("id"); id != "" {
			attrs += fmt.Sprintf(" id=%q", id)
		}
		if class := child.Attr("class"); class != "" {
			attrs += fmt.Sprintf(" class=%q", class)
		}
		for i := 0; i < depth; i++ {
			fmt.Print("  ")
		}
		fmt.Printf("<%s%s>\n", child.Tag, attrs)
		outline(child, depth+1, maxDepth)
	}
}
