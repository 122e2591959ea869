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
)

// GitLabForge implements the Forge interface for GitLab instances.
type GitLabForge struct {
	BaseURL   string // e.g., "https://gitlab.example.com"
	Token     string // private token or job token
	ProjectID string // numeric ID or "group/project" path
}

// NewGitLab creates a GitLab forge client.
// Token is resolved from env: GITLAB_TOKEN, CI_JOB_TOKEN.
// Project path falls back to env CI_PROJECT_ID / CI_PROJECT_PATH.
func NewGitLab(baseURL, owner, repo string) *GitLabForge {
	token := os.Getenv("GITLAB_TOKEN")
	if token == "" {
		token = os.Getenv("CI_JOB_TOKEN")
	}

	projectID := ""
	if owner != "" && repo != "" {
		projectID = owner + "/" + repo
	}
	if projectID == "" {
		projectID = os.Getenv("CI_PROJECT_ID")
	}
	if projectID == "" {
		projectID = os.Getenv("CI_PROJECT_PATH")
	}

	return &GitLabForge{
		BaseURL:   baseURL,
		Token:     token,
		ProjectID: projectID,
	}
}

func (g *GitLabForge) Provider() Provider { return GitLab }

func (g *GitLabForge) apiURL(path string) string {
	return fmt.Sprintf("%s/api/v4/projects/%s%s", g.BaseURL, url.PathEscape(g.ProjectID), path)
}

func (g *GitLabForge) projectWebURL() string {
	return fmt.Sprintf("%s/%s", g.BaseURL, g.ProjectID)
}

func (g *GitLabForge) doJSON(ctx context.Context, method, url string, body any, result any) error {
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
	req.Header.Set("PRIVATE-TOKEN", g.Token)
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

// GitLab addresses releases by tag name, so the tag doubles as the ID.
func (g *GitLabForge) EnsureRelease(ctx context.Context, opts ReleaseOptions) (*Release, error) {
	release := &Release{
		ID:  opts.TagName,
		URL: fmt.Sprintf("%s/-/releases/%s", g.projectWebURL(), url.PathEscape(opts.TagName)),
	}

	err := g.doJSON(ctx, "GET", g.apiURL("/releases/"+url.PathEscape(opts.TagName)), nil, nil)
	if err == nil {
		release.Existing = true
		return release, nil
	}

	var he *httpError
	if !errors.As(err, &he) || !he.NotFound() {
		return nil, err
	}

	payload := map[string]any{
		"tag_name":    opts.TagName,
		"name":        opts.Name,
		"description": opts.Notes,
	}
	if err := g.doJSON(ctx, "POST", g.apiURL("/releases"), payload, nil); err != nil {
		return nil, err
	}
	return release, nil
}

// UploadAsset uploads the file to the project, then links it to the
// release — GitLab's two-step equivalent of a direct asset upload.
func (g *GitLabForge) UploadAsset(ctx context.Context, releaseID string, asset Asset) error {
	f, err := os.Open(asset.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", asset.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	w.Close()

	uploadURL := g.apiURL("/uploads")
	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("PRIVATE-TOKEN", g.Token)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return &httpError{Method: "POST", URL: uploadURL, Status: resp.StatusCode, Body: string(body)}
	}

	var uploadResp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &uploadResp); err != nil {
		return err
	}

	payload := map[string]string{
		"name":      asset.Name,
		"url":       g.BaseURL + uploadResp.URL,
		"link_type": "package",
	}
	linkURL := g.apiURL(fmt.Sprintf("/releases/%s/assets/links", url.PathEscape(releaseID)))
	return g.doJSON(ctx, "POST", linkURL, payload, nil)
}
