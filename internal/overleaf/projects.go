package overleaf

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"

	"github.com/olsync/olsync/internal/auth"
)

const (
	projectsPath = "/project"

	// The project list is embedded in the projects page as an HTML-escaped
	// JSON blob inside this meta tag.
	projectsMetaTag = `name="ol-prefetchedProjectsBlob"`
)

// ErrNoSuchProject is returned when no remote project matches the requested
// name or id.
var ErrNoSuchProject = errors.New("overleaf: no such project")

// ProjectInfo is one entry of the remote project directory.
type ProjectInfo struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type projectsBlob struct {
	TotalSize int64         `json:"totalSize"`
	Projects  []ProjectInfo `json:"projects"`
}

// Directory lists the account's remote projects over session-authenticated
// HTTP. It exists only to resolve project names to ids before the realtime
// session starts.
type Directory struct {
	client *req.Client
}

// NewDirectory builds a directory client borrowing the stored session.
func NewDirectory(session *auth.Session, serverURL string) *Directory {
	client := req.C().
		SetBaseURL(serverURL).
		SetCommonRetryCount(2).
		SetCommonRetryFixedInterval(1 * time.Second).
		SetUserAgent("olsync").
		SetCommonHeader("Cookie", session.CookieHeader())

	return &Directory{client: client}
}

// List fetches all projects visible to the account.
func (d *Directory) List(ctx context.Context) ([]ProjectInfo, error) {
	res, err := d.client.R().
		SetContext(ctx).
		Get(projectsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if res.IsErrorState() {
		return nil, fmt.Errorf("overleaf: project list returned %s", res.Status)
	}

	blob, err := extractProjectsBlob(res.String())
	if err != nil {
		return nil, err
	}

	return blob.Projects, nil
}

// FindByName resolves a project by its exact name.
func (d *Directory) FindByName(ctx context.Context, name string) (*ProjectInfo, error) {
	projects, err := d.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, project := range projects {
		if project.Name == name {
			return &project, nil
		}
	}

	return nil, fmt.Errorf("%w: name %q", ErrNoSuchProject, name)
}

// FindByID resolves a project by id, confirming it exists remotely.
func (d *Directory) FindByID(ctx context.Context, id string) (*ProjectInfo, error) {
	projects, err := d.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, project := range projects {
		if project.Id == id {
			return &project, nil
		}
	}

	return nil, fmt.Errorf("%w: id %q", ErrNoSuchProject, id)
}

// extractProjectsBlob pulls the prefetched projects JSON out of the projects
// page markup. The page embeds it as the content attribute of a meta tag.
func extractProjectsBlob(page string) (*projectsBlob, error) {
	tagStart := strings.Index(page, projectsMetaTag)
	if tagStart < 0 {
		return nil, errors.New("overleaf: projects blob not found; session may have expired")
	}

	rest := page[tagStart:]
	contentStart := strings.Index(rest, `content="`)
	if contentStart < 0 {
		return nil, errors.New("overleaf: projects meta tag has no content attribute")
	}
	rest = rest[contentStart+len(`content="`):]

	contentEnd := strings.Index(rest, `"`)
	if contentEnd < 0 {
		return nil, errors.New("overleaf: unterminated projects meta tag")
	}

	raw := html.UnescapeString(rest[:contentEnd])

	var blob projectsBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return nil, fmt.Errorf("overleaf: decode projects blob: %w", err)
	}

	return &blob, nil
}
