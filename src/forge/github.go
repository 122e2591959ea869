package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// GitHubForge implements the Forge interface for GitHub and GitHub Enterprise.
type GitHubForge struct {
	BaseURL string // "https://api.github.com" or "https://ghes.example.com/api/v3"
	Token   string
	Owner   string
	Repo    string
}

// NewGitHub creates a GitHub forge client.
// Token is resolved from env: GITHUB_TOKEN, GH_TOKEN.
// Owner/repo fall back to env GITHUB_REPOSITORY (owner/repo) when empty.
func NewGitHub(baseURL, owner, repo string) *GitHubForge {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}

	if owner == "" {
		if ghRepo := os.Getenv("GITHUB_REPOSITORY"); ghRepo != "" {
			if idx := strings.Index(ghRepo, "/"); idx >= 0 {
				owner = ghRepo[:idx]
				repo = ghRepo[idx+1:]
			}
		}
	}

	apiBase := "https://api.github.com"
	if baseURL != "" && !strings.Contains(baseURL, "github.com") {
		// GitHub Enterprise Server
		apiBase = strings.TrimRight(baseURL, "/") + "/api/v3"
	}

	return &GitHubForge{
		BaseURL: apiBase,
		Token:   token,
		Owner:   owner,
		Repo:    repo,
	}
}

func (g *GitHubForge) Provider() Provider { return GitHub }

func (g *GitHubForge) apiURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s%s", g.BaseURL, g.Owner, g.Repo, path)
}

// uploadBaseURL returns the upload API base for asset uploads.
// github.com uses uploads.github.com; GHES uses {host}/api/uploads.
func (g *GitHubForge) uploadBaseURL() string {
	if strings.Contains(g.BaseURL, "api.github.com") {
		return "https://uploads.github.com"
	}
	return strings.Replace(g.BaseURL, "/api/v3", "/api/uploads", 1)
}

func (g *GitHubForge) doJSON(ctx context.Context, method, url string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return &httpError{Method: method, URL: url, Status: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		return json.Unmarshal(respBody, result)
	}
	return nil
}

type githubRelease struct {
	ID      int    `json:"id"`
	HTMLURL string `json:"html_url"`
}

func (r githubRelease) toRelease(existing bool) *Release {
	return &Release{ID: fmt.Sprintf("%d", r.ID), URL: r.HTMLURL, Existing: existing}
}

func (g *GitHubForge) EnsureRelease(ctx context.Context, opts ReleaseOptions) (*Release, error) {
	var existing githubRelease
	err := g.doJSON(ctx, "GET", g.apiURL("/releases/tags/"+url.PathEscape(opts.TagName)), nil, &existing)
	if err == nil {
		return existing.toRelease(true), nil
	}

	var he *httpError
	if !errors.As(err, &he) || !he.NotFound() {
		return nil, err
	}

	payload := map[string]any{
		"tag_name":   opts.TagName,
		"name":       opts.Name,
		"body":       opts.Notes,
		"draft":      opts.Draft,
		"prerelease": opts.Prerelease,
	}

	var created githubRelease
	if err := g.doJSON(ctx, "POST", g.apiURL("/releases"), payload, &created); err != nil {
		return nil, err
	}
	return created.toRelease(false), nil
}

func (g *GitHubForge) UploadAsset(ctx context.Context, releaseID string, asset Asset) error {
	f, err := os.Open(asset.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return err
	}

	uploadURL := fmt.Sprintf("%s/repos/%s/%s/releases/%s/assets?name=%s",
		g.uploadBaseURL(), g.Owner, g.Repo, releaseID, url.QueryEscape(asset.Name))

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, f)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+g.Token)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = stat.Size()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return &httpError{Method: "POST", URL: uploadURL, Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}
