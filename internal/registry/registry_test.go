package registry

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobscrape-engine/internal/domain"
)

type memSource struct {
	sites   []domain.Site
	loadErr error
	saveErr error
	saves   int
}

func (m *memSource) Load() ([]domain.Site, error) { return m.sites, m.loadErr }

func (m *memSource) Save(sites []domain.Site) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.sites = sites
	return nil
}

func validSite(name string) domain.Site {
	return domain.Site{
		Name:     name,
		BaseURL:  "https://" + name + ".test/search?q=",
		Keywords: []string{"audio", "sound design"},
		Selectors: domain.Selectors{
			Container: ".job", Title: ".title", Company: ".company", Location: ".location", Link: "a",
		},
	}
}

func names(sites []domain.Site) []string {
	out := make([]string, len(sites))
	for i, s := range sites {
		out[i] = s.Name
	}
	return out
}

func TestRegistry_AddListPersists(t *testing.T) {
	src := &memSource{}
	r := Open(src, zap.NewNop())

	_, err := r.Add(validSite("acme"))
	require.NoError(t, err)
	_, err = r.Add(validSite("boards"))
	require.NoError(t, err)

	assert.Equal(t, []string{"acme", "boards"}, names(r.List()))
	assert.Equal(t, []string{"acme", "boards"}, names(src.sites))
	assert.Equal(t, 2, src.saves)
}

func TestRegistry_AddTrims(t *testing.T) {
	r := Open(&memSource{}, zap.NewNop())
	s := validSite("acme")
	s.Name = "  acme "
	s.Keywords = []string{" audio "}

	got, err := r.Add(s)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Name)
	assert.Equal(t, []string{"audio"}, got.Keywords)
}

func TestRegistry_AddValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Site)
		want   string
	}{
		{"blank name", func(s *domain.Site) { s.Name = " " }, "name is required"},
		{"blank base url", func(s *domain.Site) { s.BaseURL = "" }, "baseUrl is required"},
		{"relative base url", func(s *domain.Site) { s.BaseURL = "/search?q=" }, "absolute http(s) URL"},
		{"ftp base url", func(s *domain.Site) { s.BaseURL = "ftp://acme.test/" }, "absolute http(s) URL"},
		{"no keywords", func(s *domain.Site) { s.Keywords = nil }, "keywords must have at least 1 entry"},
		{"blank keyword", func(s *domain.Site) { s.Keywords = []string{"audio", "  "} }, "keywords[1] cannot be empty"},
		{"missing selector", func(s *domain.Site) { s.Selectors.Company = "" }, "selectors.company is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &memSource{}
			r := Open(src, zap.NewNop())
			s := validSite("acme")
			tt.mutate(&s)

			_, err := r.Add(s)
			require.Error(t, err)
			assert.True(t, eris.Is(err, domain.ErrValidation))
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, r.Len())
			assert.Zero(t, src.saves)
		})
	}
}

func TestRegistry_DuplicateNameCaseInsensitive(t *testing.T) {
	r := Open(&memSource{sites: []domain.Site{validSite("Acme")}}, zap.NewNop())

	_, err := r.Add(validSite("acme"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, domain.ErrDuplicateSite))
	assert.False(t, eris.Is(err, domain.ErrValidation))
}

func TestRegistry_UpdateKeepsOwnName(t *testing.T) {
	r := Open(&memSource{sites: []domain.Site{validSite("acme"), validSite("boards")}}, zap.NewNop())

	s := validSite("acme")
	s.Keywords = []string{"foley"}
	_, err := r.Update(0, s)
	require.NoError(t, err)

	got, err := r.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"foley"}, got.Keywords)

	_, err = r.Update(0, validSite("Boards"))
	assert.True(t, eris.Is(err, domain.ErrDuplicateSite))
}

func TestRegistry_IndexOutOfRangeIsDistinct(t *testing.T) {
	r := Open(&memSource{sites: []domain.Site{validSite("acme")}}, zap.NewNop())

	for _, i := range []int{-1, 1, 99} {
		_, err := r.Update(i, validSite("x"))
		assert.True(t, eris.Is(err, domain.ErrIndexOutOfRange), "update %d", i)
		assert.False(t, eris.Is(err, domain.ErrValidation))

		_, err = r.Delete(i)
		assert.True(t, eris.Is(err, domain.ErrIndexOutOfRange), "delete %d", i)

		_, err = r.Get(i)
		assert.True(t, eris.Is(err, domain.ErrIndexOutOfRange), "get %d", i)
	}

	// an invalid body at a bad index reports the index
	_, err := r.Update(5, domain.Site{})
	assert.True(t, eris.Is(err, domain.ErrIndexOutOfRange))
}

func TestRegistry_Delete(t *testing.T) {
	src := &memSource{sites: []domain.Site{validSite("a"), validSite("b"), validSite("c")}}
	r := Open(src, zap.NewNop())

	removed, err := r.Delete(1)
	require.NoError(t, err)
	assert.Equal(t, "b", removed.Name)
	assert.Equal(t, []string{"a", "c"}, names(r.List()))
	assert.Equal(t, []string{"a", "c"}, names(src.sites))
}

func TestRegistry_FailedSaveLeavesMemoryUnchanged(t *testing.T) {
	src := &memSource{sites: []domain.Site{validSite("acme")}}
	r := Open(src, zap.NewNop())
	src.saveErr = errors.New("read-only fs")

	_, err := r.Add(validSite("boards"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, domain.ErrPersistence))

	_, err = r.Delete(0)
	require.Error(t, err)

	assert.Equal(t, []string{"acme"}, names(r.List()))
}

func TestRegistry_ListReturnsCopy(t *testing.T) {
	r := Open(&memSource{sites: []domain.Site{validSite("acme")}}, zap.NewNop())

	l := r.List()
	l[0].Name = "mutated"
	l[0].Keywords[0] = "mutated"

	got, err := r.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Name)
	assert.Equal(t, "audio", got.Keywords[0])
}

func TestRegistry_LoadFailureStartsEmpty(t *testing.T) {
	r := Open(&memSource{loadErr: errors.New("bad yaml")}, zap.NewNop())
	assert.Zero(t, r.Len())
}

func TestRegistry_WithFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yml")
	r := Open(NewFileSource(path), zap.NewNop())

	_, err := r.Add(validSite("acme"))
	require.NoError(t, err)

	reopened := Open(NewFileSource(path), zap.NewNop())
	require.Equal(t, 1, reopened.Len())
	got, err := reopened.Get(0)
	require.NoError(t, err)
	assert.Equal(t, validSite("acme"), got)
}

func TestRegistry_SharedFileKeepsBothWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yml")
	cli := Open(NewFileSource(path), zap.NewNop())
	server := Open(NewFileSource(path), zap.NewNop())

	_, err := cli.Add(validSite("cli"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cli"}, names(server.List()))

	_, err = server.Add(validSite("api"))
	require.NoError(t, err)

	onDisk, err := NewFileSource(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"cli", "api"}, names(onDisk))
	assert.Equal(t, []string{"cli", "api"}, names(cli.List()))
}

func TestRegistry_MutationSeesOtherWriterWithoutRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yml")
	cli := Open(NewFileSource(path), zap.NewNop())
	server := Open(NewFileSource(path), zap.NewNop())

	_, err := cli.Add(validSite("acme"))
	require.NoError(t, err)

	_, err = server.Add(validSite("ACME"))
	assert.True(t, eris.Is(err, domain.ErrDuplicateSite), "got %v", err)

	removed, err := server.Delete(0)
	require.NoError(t, err)
	assert.Equal(t, "acme", removed.Name)
	assert.Empty(t, cli.List())
}

func TestRegistry_HeldLockFailsMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yml")
	orig := LockWait
	LockWait = 100 * time.Millisecond
	t.Cleanup(func() { LockWait = orig })

	src := NewFileSource(path)
	unlock, err := src.Lock()
	require.NoError(t, err)
	defer unlock()

	r := Open(NewFileSource(path), zap.NewNop())
	_, err = r.Add(validSite("acme"))
	assert.True(t, eris.Is(err, domain.ErrPersistence), "got %v", err)
	assert.Zero(t, r.Len())
}

func TestRegistry_SaveErrorKeepsCause(t *testing.T) {
	diskFull := errors.New("disk full")
	r := Open(&memSource{saveErr: diskFull}, zap.NewNop())

	_, err := r.Add(validSite("acme"))
	assert.True(t, eris.Is(err, domain.ErrPersistence))
	assert.True(t, eris.Is(err, diskFull))
}
