package pagination

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// fakeSource serves fixed pages and records which pages were requested.
type fakeSource struct {
	pages     map[int][]int
	total     int
	failOn    int
	requested []int
}

func (s *fakeSource) fetch(_ context.Context, page int) (Page[int], error) {
	s.requested = append(s.requested, page)
	if s.failOn != 0 && page == s.failOn {
		return Page[int]{}, errors.New("boom")
	}
	return Page[int]{Items: s.pages[page], TotalPages: s.total}, nil
}

func noDelay() Config {
	cfg := DefaultConfig()
	cfg.PageDelay = 0
	return cfg
}

func TestWalk_StopsAtReportedTotalPages(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]int{1: {1, 2}, 2: {3, 4}, 3: {5}, 4: {}},
		total: 3,
	}

	items, res := Collect(context.Background(), noDelay(), src.fetch)

	if !reflect.DeepEqual(src.requested, []int{1, 2, 3}) {
		t.Errorf("requested pages = %v, want [1 2 3]", src.requested)
	}
	if !reflect.DeepEqual(items, []int{1, 2, 3, 4, 5}) {
		t.Errorf("items = %v", items)
	}
	if res.Stop != StopLastPage {
		t.Errorf("Stop = %s, want %s", res.Stop, StopLastPage)
	}
	if res.Pages != 3 || res.LastPage != 3 {
		t.Errorf("Pages = %d, LastPage = %d", res.Pages, res.LastPage)
	}
}

func TestWalk_StopsOnEmptyBatch(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]int{1: {1}, 2: {}},
		total: 5,
	}

	_, res := Collect(context.Background(), noDelay(), src.fetch)

	if !reflect.DeepEqual(src.requested, []int{1, 2}) {
		t.Errorf("requested pages = %v, want [1 2]", src.requested)
	}
	if res.Stop != StopExhausted {
		t.Errorf("Stop = %s, want %s", res.Stop, StopExhausted)
	}
}

func TestWalk_MissingTotalPagesMeansSinglePage(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]int{1: {1, 2}, 2: {3}},
		total: 0,
	}

	items, res := Collect(context.Background(), noDelay(), src.fetch)

	if !reflect.DeepEqual(src.requested, []int{1}) {
		t.Errorf("requested pages = %v, want [1]", src.requested)
	}
	if len(items) != 2 {
		t.Errorf("items = %v", items)
	}
	if res.Stop != StopLastPage || res.TotalPages != 1 {
		t.Errorf("Stop = %s, TotalPages = %d", res.Stop, res.TotalPages)
	}
}

func TestWalk_RequestFailureKeepsEarlierPages(t *testing.T) {
	src := &fakeSource{
		pages:  map[int][]int{1: {1}, 2: {2}, 3: {3}},
		total:  3,
		failOn: 3,
	}

	items, res := Collect(context.Background(), noDelay(), src.fetch)

	if !reflect.DeepEqual(items, []int{1, 2}) {
		t.Errorf("items = %v, want [1 2]", items)
	}
	if res.Stop != StopRequestFailed || res.Err == nil {
		t.Errorf("Stop = %s, Err = %v", res.Stop, res.Err)
	}
}

func TestWalk_VisitorStops(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]int{1: {1}, 2: {2}, 3: {3}},
		total: 3,
	}

	var visited []int
	res := Walk(context.Background(), noDelay(), src.fetch, func(page int, _ []int) bool {
		visited = append(visited, page)
		return page < 2
	})

	if !reflect.DeepEqual(visited, []int{1, 2}) {
		t.Errorf("visited = %v, want [1 2]", visited)
	}
	if res.Stop != StopVisitor {
		t.Errorf("Stop = %s, want %s", res.Stop, StopVisitor)
	}
}

func TestWalk_StartPageAndMaxPages(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]int{2: {2}, 3: {3}, 4: {4}},
		total: 10,
	}

	cfg := noDelay()
	cfg.StartPage = 2
	cfg.MaxPages = 2
	_, res := Collect(context.Background(), cfg, src.fetch)

	if !reflect.DeepEqual(src.requested, []int{2, 3}) {
		t.Errorf("requested pages = %v, want [2 3]", src.requested)
	}
	if res.Stop != StopPageCap {
		t.Errorf("Stop = %s, want %s", res.Stop, StopPageCap)
	}
}

func TestWalk_CancelledContext(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]int{1: {1}, 2: {2}},
		total: 2,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cfg := DefaultConfig()
	res := Walk(ctx, cfg, src.fetch, func(int, []int) bool {
		cancel()
		return true
	})

	if res.Stop != StopCancelled {
		t.Errorf("Stop = %s, want %s", res.Stop, StopCancelled)
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
}
