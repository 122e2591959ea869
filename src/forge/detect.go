package forge

import "strings"

// DetectProvider determines the forge platform from a git remote URL.
func DetectProvider(remoteURL string) Provider {
	lower := strings.ToLower(remoteURL)

	switch {
	case strings.Contains(lower, "github.com"):
		return GitHub
	case strings.Contains(lower, "gitlab"):
		return GitLab
	case strings.Contains(lower, "gitea") || strings.Contains(lower, "forgejo") || strings.Contains(lower, "codeberg"):
		return Gitea
	default:
		// Self-hosted instances without obvious domain hints.
		return Unknown
	}
}

// BaseURL extracts the forge base URL from a git remote URL.
// Handles SSH (git@host:path) and HTTPS (https://host/path) formats.
func BaseURL(remoteURL string) string {
	url := remoteURL

	// SSH format: git@host:org/repo.git
	if strings.HasPrefix(url, "git@") || strings.Contains(url, "@") && strings.Contains(url, ":") {
		parts := strings.SplitN(url, "@", 2)
		if len(parts) == 2 {
			hostPath := parts[1]
			colonIdx := strings.Index(hostPath, ":")
			if colonIdx >= 0 {
				return "https://" + hostPath[:colonIdx]
			}
		}
	}

	// HTTPS format: https://host/org/repo.git
	if strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://") {
		scheme := "https://"
		withoutScheme := strings.TrimPrefix(url, "https://")
		if strings.HasPrefix(url, "http://") {
			scheme = "http://"
			withoutScheme = strings.TrimPrefix(url, "http://")
		}
		slashIdx := strings.Index(withoutScheme, "/")
		if slashIdx >= 0 {
			return scheme + withoutScheme[:slashIdx]
		}
		return scheme + withoutScheme
	}

	return url
}

// ParseOwnerRepo extracts the owner and repository name from a git remote
// URL. Returns empty strings when the URL has no recognizable path.
func ParseOwnerRepo(remoteURL string) (owner, repo string) {
	path := strings.TrimSuffix(remoteURL, ".git")

	// SSH: git@host:owner/repo
	if !strings.Contains(path, "://") {
		if idx := strings.LastIndex(path, ":"); idx >= 0 {
			path = path[idx+1:]
		}
	} else {
		// HTTPS: scheme://host/owner/repo
		if idx := strings.Index(path, "://"); idx >= 0 {
			path = path[idx+3:]
		}
		if idx := strings.Index(path, "/"); idx >= 0 {
			path = path[idx+1:]
		} else {
			return "", ""
		}
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return "", ""
	}
	// GitLab allows nested groups: everything before the last component
	// is the owner path.
	return strings.Join(parts[:len(parts)-1], "/"), parts[len(parts)-1]
}
