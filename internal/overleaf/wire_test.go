package overleaf

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenTree(t *testing.T) {
	raw := `{
		"project": {
			"_id": "proj-1",
			"name": "thesis",
			"version": 7,
			"rootFolder": [{
				"name": "rootFolder",
				"docs": [
					{"_id": "d1", "name": "main.tex", "hash": "h-main", "size": 120},
					{"_id": "d2", "name": "refs.bib", "hash": "h-refs", "size": 40, "version": 5}
				],
				"fileRefs": [
					{"_id": "f1", "name": "logo.png", "hash": "h-logo", "size": 2048}
				],
				"folders": [{
					"name": "chapters",
					"docs": [{"_id": "d3", "name": "intro.tex", "hash": "h-intro", "size": 300}],
					"fileRefs": [],
					"folders": []
				}]
			}]
		}
	}`

	var payload joinPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	snapshot := flattenTree(payload.Project.RootFolder, payload.Project.Version)

	require.Len(t, snapshot, 4)
	assert.Equal(t, "h-main", snapshot["main.tex"].Hash)
	assert.Equal(t, int64(120), snapshot["main.tex"].Size)
	assert.Equal(t, int64(7), snapshot["main.tex"].Version)
	assert.Equal(t, int64(5), snapshot["refs.bib"].Version)
	assert.Equal(t, "h-logo", snapshot["logo.png"].Hash)
	assert.Equal(t, "h-intro", snapshot["chapters/intro.tex"].Hash)
}

func TestFlattenTreeEmpty(t *testing.T) {
	assert.Empty(t, flattenTree(nil, 1))
}

func TestFrameRoundTrip(t *testing.T) {
	f, err := newFrame(eventGetDocument, "req-1", &getDocumentPayload{Path: "main.tex"})
	require.NoError(t, err)

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var decoded frame
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, eventGetDocument, decoded.Name)
	assert.Equal(t, "req-1", decoded.Id)

	var payload getDocumentPayload
	require.NoError(t, decoded.decodePayload(&payload))
	assert.Equal(t, "main.tex", payload.Path)
}

func TestDecodePayloadMissing(t *testing.T) {
	f := &frame{Name: eventJoinProject}
	var payload joinPayload
	assert.Error(t, f.decodePayload(&payload))
}

func TestContentEncoding(t *testing.T) {
	content := []byte{0x00, 0x01, 0xff, 'a'}
	decoded, err := decodeContent(encodeContent(content))
	require.NoError(t, err)
	assert.Equal(t, content, decoded)

	_, err = decodeContent("not-base64!!!")
	assert.Error(t, err)
}

func TestExtractProjectsBlob(t *testing.T) {
	page := `<html><head>
		<meta name="ol-csrfToken" content="tok">
		<meta name="ol-prefetchedProjectsBlob" data-type="json" content="{&quot;totalSize&quot;:2,&quot;projects&quot;:[{&quot;id&quot;:&quot;p1&quot;,&quot;name&quot;:&quot;thesis&quot;},{&quot;id&quot;:&quot;p2&quot;,&quot;name&quot;:&quot;notes&quot;}]}">
	</head></html>`

	blob, err := extractProjectsBlob(page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), blob.TotalSize)
	require.Len(t, blob.Projects, 2)
	assert.Equal(t, "p1", blob.Projects[0].Id)
	assert.Equal(t, "thesis", blob.Projects[0].Name)
}

func TestExtractProjectsBlobMissing(t *testing.T) {
	_, err := extractProjectsBlob("<html><body>login page</body></html>")
	assert.Error(t, err)
}
