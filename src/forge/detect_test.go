package forge

import "testing"

func TestDetectProvider(t *testing.T) {
	cases := []struct {
		url  string
		want Provider
	}{
		{"git@github.com:feeless/feeless.git", GitHub},
		{"https://github.com/feeless/feeless.git", GitHub},
		{"https://gitlab.example.com/group/project.git", GitLab},
		{"git@gitlab.com:group/sub/project.git", GitLab},
		{"https://codeberg.org/owner/tool.git", Gitea},
		{"https://git.example.com/owner/tool.git", Unknown},
	}

	for _, c := range cases {
		if got := DetectProvider(c.url); got != c.want {
			t.Errorf("DetectProvider(%q) = %s, want %s", c.url, got, c.want)
		}
	}
}

func TestBaseURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"git@github.com:feeless/feeless.git", "https://github.com"},
		{"https://gitlab.example.com/group/project.git", "https://gitlab.example.com"},
		{"http://git.local/owner/repo", "http://git.local"},
	}

	for _, c := range cases {
		if got := BaseURL(c.url); got != c.want {
			t.Errorf("BaseURL(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestParseOwnerRepo(t *testing.T) {
	cases := []struct {
		url         string
		owner, repo string
	}{
		{"git@github.com:feeless/feeless.git", "feeless", "feeless"},
		{"https://github.com/sofmeright/shipgate.git", "sofmeright", "shipgate"},
		{"https://gitlab.example.com/group/subgroup/project.git", "group/subgroup", "project"},
		{"https://github.com/orphan", "", ""},
	}

	for _, c := range cases {
		owner, repo := ParseOwnerRepo(c.url)
		if owner != c.owner || repo != c.repo {
			t.Errorf("ParseOwnerRepo(%q) = (%q, %q), want (%q, %q)", c.url, owner, repo, c.owner, c.repo)
		}
	}
}
