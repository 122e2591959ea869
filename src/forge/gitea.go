package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// GiteaForge implements the Forge interface for Gitea and Forgejo instances.
type GiteaForge struct {
	BaseURL string // e.g., "https://codeberg.org"
	Token   string
	Owner   string
	Repo    string
}

// NewGitea creates a Gitea/Forgejo forge client.
// Token is resolved from env: GITEA_TOKEN, FORGEJO_TOKEN.
// Owner/repo fall back to env CI_REPO (Woodpecker CI) or
// GITHUB_REPOSITORY (Gitea Actions, which uses GitHub-compatible vars).
func NewGitea(baseURL, owner, repo string) *GiteaForge {
	token := os.Getenv("GITEA_TOKEN")
	if token == "" {
		token = os.Getenv("FORGEJO_TOKEN")
	}

	if owner == "" {
		for _, env := range []string{"CI_REPO", "GITHUB_REPOSITORY"} {
			if v := os.Getenv(env); v != "" {
				if idx := strings.Index(v, "/"); idx >= 0 {
					owner = v[:idx]
					repo = v[idx+1:]
					break
				}
			}
		}
	}

	return &GiteaForge{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Owner:   owner,
		Repo:    repo,
	}
}

func (g *GiteaForge) Provider() Provider { return Gitea }

func (g *GiteaForge) apiURL(path string) string {
	return fmt.Sprintf("%s/api/v1/repos/%s/%s%s", g.BaseURL, g.Owner, g.Repo, path)
}

func (g *GiteaForge) doJSON(ctx context.Context, method, url string, body any, result any) error {
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
	req.Header.Set("Authorization", "token "+g.Token)
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

type giteaRelease struct {
	ID      int    `json:"id"`
	HTMLURL string `json:"html_url"`
}

func (r giteaRelease) toRelease(existing bool) *Release {
	return &Release{ID: fmt.Sprintf("%d", r.ID), URL: r.HTMLURL, Existing: existing}
}

func (g *GiteaForge) EnsureRelease(ctx context.Context, opts ReleaseOptions) (*Release, error) {
	var existing giteaRelease
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

	var created giteaRelease
	if err := g.doJSON(ctx, "POST", g.apiURL("/releases"), payload, &created); err != nil {
		return nil, err
	}
	return created.toRelease(false), nil
}

func (g *GiteaForge) UploadAsset(ctx context.Context, releaseID string, asset Asset) error {
	f, err := os.Open(asset.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("attachment", asset.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	w.Close()

	uploadURL := g.apiURL(fmt.Sprintf("/releases/%s/assets?name=%s", releaseID, url.QueryEscape(asset.Name)))
	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+g.Token)
	req.Header.Set("Content-Type", w.FormDataContentType())

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
