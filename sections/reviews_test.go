package sections

import (
	"testing"

	"github.com/BAODAU/whop-wss-streaming/dom"
)

const reviewDoc = `<section class="reviews-block">
<h2>Customer Reviews</h2>
<p>4.8 out of 5</p>
<span>1,234 total reviews</span>
<div>
	<span>5 stars</span>
	<div style="width: 80%"></div>
</div>
<div>
	<span>4 stars</span>
	<div><div style="width:12.5%"></div></div>
</div>
<div>
	<span>1 star</span>
</div>
</section>`

func TestReviews(t *testing.T) {
	got := Reviews(dom.Build(reviewDoc))
	if got == nil {
		t.Fatal("Reviews returned nil")
	}
	if got.Heading != "Customer Reviews" {
		t.Errorf("heading = %q", got.Heading)
	}
	if got.AverageRating == nil || *got.AverageRating != 4.8 {
		t.Errorf("average = %v", got.AverageRating)
	}
	if got.RatingScale == nil || *got.RatingScale != 5 {
		t.Errorf("scale = %v", got.RatingScale)
	}
	if got.TotalReviews == nil || *got.TotalReviews != 1234 {
		t.Errorf("total = %v", got.TotalReviews)
	}

	if len(got.Distribution) != 5 {
		t.Fatalf("distribution rows = %d, want 5", len(got.Distribution))
	}
	five := got.Distribution[0]
	if five.Stars != 5 || five.Percent == nil || *five.Percent != 80 {
		t.Errorf("5-star band = %+v", five)
	}
	if five.Count == nil || *five.Count != 987 {
		t.Errorf("5-star count = %v, want 987", five.Count)
	}
	four := got.Distribution[1]
	if four.Percent == nil || *four.Percent != 12.5 {
		t.Errorf("4-star percent = %v", four.Percent)
	}
	// Unmeasured star levels are filled with nulls.
	three := got.Distribution[2]
	if three.Stars != 3 || three.Percent != nil || three.Count != nil {
		t.Errorf("3-star band = %+v", three)
	}
	one := got.Distribution[4]
	if one.Stars != 1 || one.Percent != nil {
		t.Errorf("1-star band = %+v", one)
	}
}

func TestReviewsCountsSumWithinTotal(t *testing.T) {
	got := Reviews(dom.Build(reviewDoc))
	if got == nil || got.TotalReviews == nil {
		t.Fatal("missing summary")
	}
	sum, nonNull := 0, 0
	for _, band := range got.Distribution {
		if band.Count != nil {
			sum += *band.Count
			nonNull++
		}
	}
	if sum > *got.TotalReviews+nonNull {
		t.Errorf("counts sum %d exceeds total %d beyond rounding slack", sum, *got.TotalReviews)
	}
}

func TestReviewsNoSignal(t *testing.T) {
	doc := `<section><h2>Reviews</h2><p>Nothing quantitative here.</p></section>`
	if got := Reviews(dom.Build(doc)); got != nil {
		t.Errorf("Reviews = %+v, want nil", got)
	}
}

func TestReviewsNilTree(t *testing.T) {
	if got := Reviews(nil); got != nil {
		t.Errorf("Reviews(nil) = %+v, want nil", got)
	}
}

func TestPricingOptions(t *testing.T) {
	doc := `<div role="radio">Monthly — $9.99</div>
<div role="radio">Yearly — $99</div>
<div role="radio">Monthly — $9.99</div>
<div role="checkbox">Not pricing</div>`
	got := PricingOptions(dom.Build(doc))
	if len(got) != 2 {
		t.Fatalf("options = %v", got)
	}
	if got[0] != "Monthly — $9.99" || got[1] != "Yearly — $99" {
		t.Errorf("options = %v", got)
	}
}

func TestPricingOptionsNilTree(t *testing.T) {
	if got := PricingOptions(nil); got != nil {
		t.Errorf("PricingOptions(nil) = %v, want nil", got)
	}
}
