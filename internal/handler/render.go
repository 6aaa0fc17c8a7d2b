package handler

import "github.com/akozlova/foodgram/internal/model"

// Services store image paths relative to the media root; the HTTP layer is
// where those become /media/ URLs. These helpers mutate the response copies
// in place right before encoding.

func renderProfile(p *model.UserProfile) {
	p.Avatar = mediaURL(p.Avatar)
}

func renderSummary(s *model.RecipeSummary) {
	s.Image = mediaURL(s.Image)
}

func renderDetail(d *model.RecipeDetail) {
	d.Image = mediaURL(d.Image)
	renderProfile(&d.Author)
}

func renderAuthor(a *model.AuthorProfile) {
	renderProfile(&a.UserProfile)
	for i := range a.Recipes {
		renderSummary(&a.Recipes[i])
	}
}
