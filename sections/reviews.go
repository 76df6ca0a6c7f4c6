package sections

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/BAODAU/whop-wss-streaming/dom"
)

var (
	totalReviewsRe = regexp.MustCompile(`(?i)(\d[\d,]*)\s+total reviews?`)
	outOfRe        = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s+out of\s+(\d[\d,]*(?:\.\d+)?)`)
	starLabelRe    = regexp.MustCompile(`(?i)^([1-5])\s+star`)
	numberRe       = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	widthRe        = regexp.MustCompile(`width:\s*([0-9]+(?:\.[0-9]+)?)%`)
)

// StarBand is one row of the 5-to-1 rating distribution.
type StarBand struct {
	Stars   int      `json:"stars"`
	Percent *float64 `json:"percent"`
	Count   *int     `json:"count"`
}

// ReviewSummary aggregates the recovered review signals for one page.
type ReviewSummary struct {
	Heading       string     `json:"heading"`
	AverageRating *float64   `json:"average_rating"`
	RatingScale   *float64   `json:"rating_scale"`
	TotalReviews  *int       `json:"total_reviews"`
	Distribution  []StarBand `json:"distribution"`
}

// Reviews extracts a review summary from the first qualifying "review"
// heading. Returns nil when no total, average, or distribution was found.
func Reviews(tree *dom.Tree) *ReviewSummary {
	if tree == nil {
		return nil
	}
	for _, heading := range tree.ByTag("h2") {
		headingText := heading.Text()
		if headingText == "" || !strings.Contains(strings.ToLower(headingText), "review") {
			continue
		}
		container := reviewContainer(heading)

		var averageRating, ratingScale *float64
		var totalReviews *int
		container.Descendants(map[string]bool{"span": true, "div": true, "p": true}, func(n *dom.Node) bool {
			text := n.Text()
			if text == "" {
				return true
			}
			lower := strings.ToLower(text)
			if totalReviews == nil && strings.Contains(lower, "total review") {
				if m := totalReviewsRe.FindStringSubmatch(text); m != nil {
					if v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
						totalReviews = &v
					}
				} else if v, ok := parseInt(text); ok {
					totalReviews = &v
				}
			}
			if averageRating == nil && strings.Contains(lower, "out of") {
				if m := outOfRe.FindStringSubmatch(text); m != nil {
					avg, errA := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
					scale, errS := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
					if errA == nil && errS == nil {
						averageRating = &avg
						ratingScale = &scale
					}
				}
			}
			return true
		})

		bands := map[int]StarBand{}
		container.Descendants(map[string]bool{"span": true}, func(span *dom.Node) bool {
			label := span.Text()
			m := starLabelRe.FindStringSubmatch(strings.TrimSpace(label))
			if m == nil {
				return true
			}
			stars, _ := strconv.Atoi(m[1])
			percent := starRowPercent(span)
			var count *int
			if percent != nil && totalReviews != nil {
				v := int(math.Round(float64(*totalReviews) * (*percent / 100)))
				count = &v
			}
			bands[stars] = StarBand{Stars: stars, Percent: percent, Count: count}
			return true
		})

		if totalReviews == nil && averageRating == nil && len(bands) == 0 {
			continue
		}

		distribution := make([]StarBand, 0, 5)
		for stars := 5; stars >= 1; stars-- {
			if band, ok := bands[stars]; ok {
				distribution = append(distribution, band)
			} else {
				distribution = append(distribution, StarBand{Stars: stars})
			}
		}
		return &ReviewSummary{
			Heading:       headingText,
			AverageRating: averageRating,
			RatingScale:   ratingScale,
			TotalReviews:  totalReviews,
			Distribution:  distribution,
		}
	}
	return nil
}

// reviewContainer picks the most specific allowed ancestor for a review
// heading: the highest section, or a container whose id/class mentions
// "review", reached while walking upward through allowed container tags.
func reviewContainer(heading *dom.Node) *dom.Node {
	var best *dom.Node
	for current := heading.Parent; current != nil && containerTags[current.Tag]; current = current.Parent {
		attrsBlob := strings.ToLower(strings.TrimSpace(current.Attr("id") + " " + current.Attr("class")))
		if current.Tag == "section" || strings.Contains(attrsBlob, "review") {
			best = current
		}
	}
	if best != nil {
		return best
	}
	if ancestor := heading.Ancestor(containerTags); ancestor != nil {
		return ancestor
	}
	return heading
}

// starRowPercent finds the width percentage attached to a star row: first on
// a sibling of the label span (descending into children), then on the parent
// itself.
func starRowPercent(span *dom.Node) *float64 {
	parent := span.Parent
	if parent == nil {
		return nil
	}
	for _, sibling := range parent.Children {
		if sibling == span {
			continue
		}
		if percent := widthPercent(sibling); percent != nil {
			return percent
		}
	}
	return widthPercent(parent)
}

// widthPercent pulls a CSS width percentage from a node's style attribute,
// recursing into children when the node itself carries none.
func widthPercent(node *dom.Node) *float64 {
	if node == nil {
		return nil
	}
	if m := widthRe.FindStringSubmatch(node.Attr("style")); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &v
		}
		return nil
	}
	for _, child := range node.Children {
		if percent := widthPercent(child); percent != nil {
			return percent
		}
	}
	return nil
}

// parseInt extracts the first number in text rounded to an int.
func parseInt(text string) (int, bool) {
	m := numberRe.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(v)), true
}
