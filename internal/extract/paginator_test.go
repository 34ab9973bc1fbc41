package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franz/suno-archive/internal/util"
)

// pagedSite serves a fixed sequence of library pages. The next control
// advances until the last page, where it stays put.
type pagedSite struct {
	page    *fakePage
	pages   [][]int
	current int
	next    *fakeElement
}

func newPagedSite(pages ...[]int) *pagedSite {
	s := &pagedSite{page: newFakePage(""), pages: pages}
	s.page.html = func(string) (string, error) { return libraryPage(s.pages[s.current]...), nil }
	s.next = &fakeElement{text: "›", onClick: func() {
		if s.current < len(s.pages)-1 {
			s.current++
		}
	}}
	s.page.elements[nextPageCSS[0]] = []*fakeElement{s.next}
	return s
}

func newTestPaginator(page *fakePage) *Paginator {
	h := newTestHarvester(page)
	p := NewPaginator(page, h, PaginatorConfig{MaxScrolls: 10}, nil)
	p.sleep = noSleep
	return p
}

func identities(t *testing.T, result *TabResult) []string {
	t.Helper()
	var ids []string
	for _, rec := range result.Records {
		id, ok := rec.Identity()
		require.True(t, ok)
		ids = append(ids, id)
	}
	return ids
}

func TestExtractTab_StopsWhenPagerStopsMoving(t *testing.T) {
	site := newPagedSite([]int{1, 2}, []int{3, 4}, []int{5})
	p := newTestPaginator(site.page)

	result, err := p.ExtractTab(context.Background(), "creations", 50)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, StopUnchanged, result.StopReason)
	assert.Equal(t, []string{songID(1), songID(2), songID(3), songID(4), songID(5)}, identities(t, result))
	for _, rec := range result.Records {
		assert.Equal(t, "creations", rec.SourceTab)
	}
}

func TestExtractTab_OverlappingPagesDoNotDuplicate(t *testing.T) {
	site := newPagedSite([]int{1, 2}, []int{2, 3}, []int{3})
	p := newTestPaginator(site.page)

	result, err := p.ExtractTab(context.Background(), "likes", 50)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, StopEmpty, result.StopReason)
	assert.Equal(t, []string{songID(1), songID(2), songID(3)}, identities(t, result))
}

func TestExtractTab_NoNextControl(t *testing.T) {
	site := newPagedSite([]int{1, 2, 3})
	delete(site.page.elements, nextPageCSS[0])
	p := newTestPaginator(site.page)

	result, err := p.ExtractTab(context.Background(), "creations", 50)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, StopNoNext, result.StopReason)
	assert.Len(t, result.Records, 3)
}

func TestExtractTab_DisabledNextFallsBackToGlyph(t *testing.T) {
	site := newPagedSite([]int{1}, []int{2})
	site.next.disabled = true
	glyph := &fakeElement{text: "»", onClick: func() { site.current = 1 }}
	site.page.elements[glyphCSS] = []*fakeElement{{text: "Home"}, glyph}
	p := newTestPaginator(site.page)

	result, err := p.ExtractTab(context.Background(), "creations", 2)
	require.NoError(t, err)

	assert.Equal(t, 1, glyph.clicks)
	assert.Zero(t, site.next.clicks)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, StopMaxPages, result.StopReason)
	assert.Len(t, result.Records, 2)
}

func TestExtractTab_MaxPages(t *testing.T) {
	site := newPagedSite([]int{1}, []int{2}, []int{3}, []int{4}, []int{5})
	p := newTestPaginator(site.page)

	result, err := p.ExtractTab(context.Background(), "creations", 2)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, StopMaxPages, result.StopReason)
	assert.Equal(t, []string{songID(1), songID(2)}, identities(t, result))
	assert.Equal(t, 1, site.next.clicks)
}

func TestExtractTab_EmptyLibrary(t *testing.T) {
	page := newFakePage(`<html><body><main class="content"><p>No songs yet</p></main></body></html>`)
	p := newTestPaginator(page)

	result, err := p.ExtractTab(context.Background(), "creations", 50)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, StopEmpty, result.StopReason)
	assert.Empty(t, result.Records)
}

func TestExtractTab_SharedSeenSetAcrossTabs(t *testing.T) {
	site := newPagedSite([]int{1, 2})
	delete(site.page.elements, nextPageCSS[0])
	p := newTestPaginator(site.page)

	first, err := p.ExtractTab(context.Background(), "creations", 50)
	require.NoError(t, err)
	require.Len(t, first.Records, 2)

	site.pages[0] = []int{2, 3}
	second, err := p.ExtractTab(context.Background(), "likes", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{songID(3)}, identities(t, second))
	assert.Equal(t, "likes", second.Records[0].SourceTab)
}

func TestOpenTab(t *testing.T) {
	page := newFakePage("")
	creations := &fakeElement{text: "Creations"}
	likes := &fakeElement{text: "Likes"}
	page.elements[`button, a, [role="tab"], div.tab`] = []*fakeElement{creations, likes}
	p := newTestPaginator(page)

	require.NoError(t, p.OpenTab(context.Background(), "likes"))
	assert.Equal(t, []string{"https://suno.com/me?tab=likes"}, page.navigations)
	assert.Equal(t, 1, likes.clicks)
	assert.Zero(t, creations.clicks)
}

func TestOpenTab_MissingControlIsNotAnError(t *testing.T) {
	page := newFakePage("")
	p := newTestPaginator(page)

	require.NoError(t, p.OpenTab(context.Background(), "playlists"))
	assert.Equal(t, "https://suno.com/me?tab=playlists", page.location)
}

func TestOpenTab_SignInRedirect(t *testing.T) {
	page := newFakePage("")
	page.redirects = map[string]string{
		"https://suno.com/me?tab=creations": "https://suno.com/sign-in?redirect_url=%2Fme",
	}
	creations := &fakeElement{text: "Creations"}
	page.elements[`button, a, [role="tab"], div.tab`] = []*fakeElement{creations}
	p := newTestPaginator(page)

	err := p.OpenTab(context.Background(), "creations")
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrSignedOut)
	assert.Contains(t, err.Error(), "/sign-in")
	assert.Zero(t, creations.clicks)
}
