// Package youtube publishes finished videos to a user's channel using
// the OAuth refresh token the auth server stored at login.
package youtube

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

const (
	providerGoogle = "google"
	// 22 = People & Blogs
	defaultCategoryID = "22"
)

// TokenStore hands out stored OAuth refresh tokens per user.
type TokenStore interface {
	RefreshToken(ctx context.Context, userID, provider string) (string, error)
}

type Uploader struct {
	cfg    *oauth2.Config
	tokens TokenStore
}

func NewUploader(clientID, clientSecret string, tokens TokenStore) *Uploader {
	return &Uploader{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{youtubeapi.YoutubeUploadScope},
		},
		tokens: tokens,
	}
}

// Upload pushes the file as a private video and returns the YouTube
// video id.
func (u *Uploader) Upload(ctx context.Context, userID, filePath, title, description string) (string, error) {
	refreshToken, err := u.tokens.RefreshToken(ctx, userID, providerGoogle)
	if err != nil {
		return "", fmt.Errorf("load refresh token: %w", err)
	}

	ts := u.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	svc, err := youtubeapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "", fmt.Errorf("create youtube service: %w", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	call := svc.Videos.Insert([]string{"snippet", "status"}, &youtubeapi.Video{
		Snippet: &youtubeapi.VideoSnippet{
			Title:       title,
			Description: description,
			CategoryId:  defaultCategoryID,
		},
		Status: &youtubeapi.VideoStatus{PrivacyStatus: "private"},
	})

	resp, err := call.Media(f, googleapi.ContentType("video/mp4")).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("youtube insert failed: %w", err)
	}
	if resp.Id == "" {
		return "", fmt.Errorf("youtube insert returned no video id")
	}
	return resp.Id, nil
}
