package service

import (
	"context"

	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
)

// profileFor builds the viewer-relative read representation of a user.
// is_subscribed is computed against the viewer and stays false for anonymous
// viewers and for the viewer's own profile. Both the user service and the
// recipe service (for the embedded author) render profiles through here.
func profileFor(ctx context.Context, subs repository.SubscriptionRepository, user *model.User, viewerID string) (model.UserProfile, error) {
	profile := model.UserProfile{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Avatar:    user.Avatar,
	}
	if viewerID != "" && viewerID != user.ID {
		subscribed, err := subs.IsSubscribed(ctx, viewerID, user.ID)
		if err != nil {
			return model.UserProfile{}, err
		}
		profile.IsSubscribed = subscribed
	}
	return profile, nil
}
