package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"forceview/internal/domain"
	"forceview/internal/repository"
	"forceview/internal/repository/sqlite"
	"forceview/internal/view"
)

const testGraphJSON = `{
  "nodes": [
    {"id": "A1", "name": "Ada Lovelace", "group": 0},
    {"id": "A2", "name": "Charles Babbage", "group": 0},
    {"id": "O7", "name": "Notes", "group": 1}
  ],
  "links": [
    {"source": "A1", "target": "O7"},
    {"source": "A2", "target": "O7"}
  ]
}`

func newTestGraphService(t *testing.T) (*GraphService, *EventBus) {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	bus := NewEventBus()
	return NewGraphService(repo, bus), bus
}

func subscribe(bus *EventBus) chan Event {
	ch := make(chan Event, 1024)
	bus.Subscribe(ch)
	return ch
}

// waitEvent reads events until one of type typ arrives
func waitEvent(t *testing.T, ch <-chan Event, typ EventType) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type == typ {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", typ)
			return Event{}
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestGraphServiceValidate(t *testing.T) {
	svc, _ := newTestGraphService(t)

	t.Run("valid snapshot passes validation", func(t *testing.T) {
		s := domain.NewSnapshot()
		s.AddNode(*domain.NewNode("A1", "Ada", domain.GroupAuthor))
		s.AddNode(*domain.NewNode("O7", "Notes", domain.GroupOutput))
		s.AddLink(*domain.NewLink("A1", "O7"))
		if err := svc.Validate(s); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("empty ID fails validation", func(t *testing.T) {
		s := domain.NewSnapshot()
		s.AddNode(domain.Node{Name: "Nobody"})
		if err := svc.Validate(s); !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("expected ErrInvalidSnapshot, got %v", err)
		}
	})

	t.Run("negative group fails validation", func(t *testing.T) {
		s := domain.NewSnapshot()
		s.AddNode(domain.Node{ID: "X", Group: -1})
		if err := svc.Validate(s); !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("expected ErrInvalidSnapshot, got %v", err)
		}
	})

	t.Run("unresolved link fails validation", func(t *testing.T) {
		s := domain.NewSnapshot()
		s.AddNode(*domain.NewNode("A1", "Ada", domain.GroupAuthor))
		s.AddLink(*domain.NewLink("A1", "O404"))
		if err := svc.Validate(s); !errors.Is(err, domain.ErrUnresolvedLink) {
			t.Errorf("expected ErrUnresolvedLink, got %v", err)
		}
	})

	t.Run("duplicate node fails validation", func(t *testing.T) {
		s := domain.NewSnapshot()
		s.AddNode(*domain.NewNode("A1", "Ada", domain.GroupAuthor))
		s.AddNode(*domain.NewNode("A1", "Ada", domain.GroupAuthor))
		if err := svc.Validate(s); !errors.Is(err, domain.ErrDuplicateNode) {
			t.Errorf("expected ErrDuplicateNode, got %v", err)
		}
	})
}

func TestGraphServiceImport(t *testing.T) {
	svc, bus := newTestGraphService(t)
	events := subscribe(bus)
	ctx := context.Background()

	result, err := svc.Import(ctx, "json", []byte(testGraphJSON))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Nodes != 3 || result.Authors != 2 || result.Outputs != 1 || result.Links != 2 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Format != "json" {
		t.Errorf("Format = %s, want json", result.Format)
	}

	ev := waitEvent(t, events, EventGraphImported)
	if ev.Payload.(*ImportResult) != result {
		t.Errorf("expected event payload to be the import result")
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Nodes) != 3 || len(snap.Links) != 2 {
		t.Errorf("expected 3 nodes and 2 links, got %d and %d", len(snap.Nodes), len(snap.Links))
	}

	node, err := svc.GetNode(ctx, "O7")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if node.Group != domain.GroupOutput {
		t.Errorf("expected O7 in output group")
	}
}

func TestGraphServiceImportRejectsBadInput(t *testing.T) {
	svc, _ := newTestGraphService(t)
	ctx := context.Background()

	if _, err := svc.Import(ctx, "json", []byte(testGraphJSON)); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	bad := `{"nodes": [{"id": "A1", "group": 0}], "links": [{"source": "A1", "target": "O9"}]}`
	if _, err := svc.Import(ctx, "json", []byte(bad)); !errors.Is(err, domain.ErrUnresolvedLink) {
		t.Fatalf("expected ErrUnresolvedLink, got %v", err)
	}
	if _, err := svc.Import(ctx, "csv", []byte("a,b")); err == nil {
		t.Fatal("expected unknown format error")
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Authors != 2 || stats.Authorships != 2 {
		t.Errorf("expected previous graph to survive, got %+v", stats)
	}
}

func TestGraphServiceImportRejectsUnstorable(t *testing.T) {
	svc, _ := newTestGraphService(t)
	ctx := context.Background()

	if _, err := svc.Import(ctx, "json", []byte(testGraphJSON)); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	tests := []struct {
		name   string
		data   string
		target error
	}{
		{
			name:   "unknown group",
			data:   `{"nodes": [{"id": "V1", "name": "Venue", "group": 4}], "links": []}`,
			target: repository.ErrUnstorableGroup,
		},
		{
			name: "author to author",
			data: `{"nodes": [{"id": "A1", "group": 0}, {"id": "A2", "group": 0}],
				"links": [{"source": "A1", "target": "A2"}]}`,
			target: repository.ErrInvalidAuthorship,
		},
		{
			name:   "foreign url",
			data:   `{"nodes": [{"id": "O1", "group": 1, "url": "https://example.com/o1"}], "links": []}`,
			target: repository.ErrUnstorableURL,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Import(ctx, "json", []byte(tt.data)); !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
		})
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Authors != 2 || stats.Outputs != 1 || stats.Authorships != 2 {
		t.Errorf("expected previous graph to survive, got %+v", stats)
	}
}

func TestGraphServiceEdits(t *testing.T) {
	svc, bus := newTestGraphService(t)
	events := subscribe(bus)
	ctx := context.Background()

	author := &repository.Author{ID: "A1", FirstName: "Ada", LastName: "Lovelace", ORCID: "https://orcid.org/0000-0001"}
	if err := svc.PutAuthor(ctx, author); err != nil {
		t.Fatalf("PutAuthor failed: %v", err)
	}
	if author.ORCID != "0000-0001" {
		t.Errorf("expected bare ORCID, got %q", author.ORCID)
	}
	ev := waitEvent(t, events, EventGraphChanged)
	if change := ev.Payload.(GraphChange); change.Action != "put_author" || change.ID != "A1" {
		t.Errorf("unexpected change %+v", change)
	}

	if err := svc.PutOutput(ctx, &repository.Output{ID: "O7", Title: "Notes", DOI: "10.1000/ae"}); err != nil {
		t.Fatalf("PutOutput failed: %v", err)
	}
	if err := svc.AddAuthorship(ctx, "A1", "O7"); err != nil {
		t.Fatalf("AddAuthorship failed: %v", err)
	}

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Nodes) != 2 || len(snap.Links) != 1 {
		t.Fatalf("expected 2 nodes and 1 link, got %d and %d", len(snap.Nodes), len(snap.Links))
	}
	if snap.Nodes[0].URL != "https://orcid.org/0000-0001" {
		t.Errorf("unexpected author url %q", snap.Nodes[0].URL)
	}

	if err := svc.PutOutput(ctx, &repository.Output{ID: "A1", Title: "Clash"}); !errors.Is(err, domain.ErrDuplicateNode) {
		t.Errorf("expected ErrDuplicateNode, got %v", err)
	}
	if err := svc.PutAuthor(ctx, &repository.Author{ID: "A2"}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
	if err := svc.AddAuthorship(ctx, "A1", "O9"); !errors.Is(err, domain.ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}

	if err := svc.DeleteNode(ctx, "O7"); err != nil {
		t.Fatalf("DeleteNode failed: %v", err)
	}
	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Outputs != 0 || stats.Authorships != 0 {
		t.Errorf("expected output and link removed, got %+v", stats)
	}

	svc.WithSnapshotFile(writeFile(t, "graph.json", testGraphJSON))
	if err := svc.DeleteNode(ctx, "A1"); !errors.Is(err, ErrReadOnlySource) {
		t.Errorf("expected ErrReadOnlySource, got %v", err)
	}
}

func TestGraphServiceExport(t *testing.T) {
	svc, _ := newTestGraphService(t)
	ctx := context.Background()

	if _, err := svc.Import(ctx, "json", []byte(testGraphJSON)); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.Export(ctx, "yaml", &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "name: Ada Lovelace") || !strings.Contains(out, "target: O7") {
		t.Errorf("unexpected YAML export:\n%s", out)
	}
}

func TestGraphServiceSnapshotFile(t *testing.T) {
	svc, _ := newTestGraphService(t)
	ctx := context.Background()

	path := writeFile(t, "graph.json", testGraphJSON)
	svc.WithSnapshotFile(path)

	snap, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Nodes) != 3 {
		t.Errorf("expected 3 nodes from file, got %d", len(snap.Nodes))
	}

	if _, err := svc.Import(ctx, "json", []byte(testGraphJSON)); !errors.Is(err, ErrReadOnlySource) {
		t.Errorf("expected ErrReadOnlySource, got %v", err)
	}
	if err := svc.Clear(ctx); !errors.Is(err, ErrReadOnlySource) {
		t.Errorf("expected ErrReadOnlySource, got %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Authors != 2 || stats.Outputs != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	if _, err := svc.GetNode(ctx, "nope"); !errors.Is(err, domain.ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
}

// ============================================================================
// ViewManager
// ============================================================================

type fakeMetrics struct {
	active int
}

func (f *fakeMetrics) ObserveTicks(string, int, float64) {}
func (f *fakeMetrics) RecordFrame(string)                {}
func (f *fakeMetrics) ForgetView(string)                 {}
func (f *fakeMetrics) SetActiveViews(n int)              { f.active = n }

func newTestViewManager(t *testing.T, snapshotJSON string) (*ViewManager, *EventBus) {
	t.Helper()
	svc, bus := newTestGraphService(t)
	if snapshotJSON != "" {
		svc.WithSnapshotFile(writeFile(t, "graph.json", snapshotJSON))
	}

	cfg := view.DefaultConfig()
	cfg.FrameInterval = time.Millisecond
	cfg.TicksPerFrame = 5

	m := NewViewManager(svc, cfg, nil, bus, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		m.CloseAll()
		cancel()
	})
	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return m, bus
}

func TestViewManagerStart(t *testing.T) {
	m, _ := newTestViewManager(t, testGraphJSON)

	views := m.List()
	if len(views) != 1 || views[0].ID != DefaultView {
		t.Fatalf("expected default view, got %+v", views)
	}
	if views[0].Nodes != 3 || views[0].Links != 2 || views[0].Empty {
		t.Errorf("unexpected view info %+v", views[0])
	}

	scene, err := m.Scene(context.Background(), DefaultView)
	if err != nil {
		t.Fatalf("Scene failed: %v", err)
	}
	if len(scene.Circles) != 3 || len(scene.Lines) != 2 {
		t.Errorf("expected 3 circles and 2 lines, got %d and %d", len(scene.Circles), len(scene.Lines))
	}
}

func TestViewManagerEmptyViewOnLoadFailure(t *testing.T) {
	m, _ := newTestViewManager(t, `{"nodes": [], "links": [{"source": "A1", "target": "O7"}]}`)

	views := m.List()
	if len(views) != 1 || !views[0].Empty {
		t.Fatalf("expected empty default view, got %+v", views)
	}
	if !strings.Contains(views[0].Reason, "unresolved link") {
		t.Errorf("expected reason to name the unresolved link, got %q", views[0].Reason)
	}

	scene, err := m.Scene(context.Background(), DefaultView)
	if err != nil {
		t.Fatalf("Scene failed: %v", err)
	}
	if !scene.Empty {
		t.Error("expected empty scene")
	}
}

func TestViewManagerDrag(t *testing.T) {
	m, _ := newTestViewManager(t, testGraphJSON)
	ctx := context.Background()

	if err := m.Drag(ctx, DefaultView, DragStart, "A1", 0, 0); err != nil {
		t.Fatalf("drag start failed: %v", err)
	}
	if err := m.Drag(ctx, DefaultView, DragMove, "A1", 12, -34); err != nil {
		t.Fatalf("drag move failed: %v", err)
	}

	nodes, err := m.Nodes(ctx, DefaultView)
	if err != nil {
		t.Fatalf("Nodes failed: %v", err)
	}
	a1 := nodes[0]
	if a1.FX == nil || *a1.FX != 12 || a1.FY == nil || *a1.FY != -34 {
		t.Errorf("expected A1 pinned at (12, -34), got %+v", a1)
	}

	if err := m.Drag(ctx, DefaultView, DragEnd, "A1", 0, 0); err != nil {
		t.Fatalf("drag end failed: %v", err)
	}
	nodes, _ = m.Nodes(ctx, DefaultView)
	if nodes[0].FX != nil || nodes[0].FY != nil {
		t.Errorf("expected A1 unpinned after drag end, got %+v", nodes[0])
	}

	if err := m.Drag(ctx, DefaultView, "fling", "A1", 0, 0); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("expected ErrInvalidPhase, got %v", err)
	}
	if err := m.Drag(ctx, DefaultView, DragMove, "A1", 1, 1); !errors.Is(err, view.ErrNotDragging) {
		t.Errorf("expected ErrNotDragging, got %v", err)
	}
	if err := m.Drag(ctx, "missing", DragStart, "A1", 0, 0); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("expected ErrViewNotFound, got %v", err)
	}
}

func TestViewManagerHover(t *testing.T) {
	m, _ := newTestViewManager(t, testGraphJSON)
	ctx := context.Background()

	if err := m.Hover(ctx, DefaultView, HoverEnter, "A2", 100, 100); err != nil {
		t.Fatalf("hover enter failed: %v", err)
	}
	scene, _ := m.Scene(ctx, DefaultView)
	if scene.Tooltip.Text != "Charles Babbage" {
		t.Errorf("tooltip = %q, want Charles Babbage", scene.Tooltip.Text)
	}

	if err := m.Hover(ctx, DefaultView, HoverLeave, "A2", 0, 0); err != nil {
		t.Fatalf("hover leave failed: %v", err)
	}
	scene, _ = m.Scene(ctx, DefaultView)
	if scene.Tooltip.Visible || scene.Tooltip.Text != "" {
		t.Errorf("expected tooltip removed, got %+v", scene.Tooltip)
	}
}

func TestViewManagerDoubleClick(t *testing.T) {
	graph := strings.Replace(testGraphJSON, `{"id": "O7", "name": "Notes", "group": 1}`,
		`{"id": "O7", "name": "Notes", "group": 1},
    {"id": "V1", "name": "Venue", "group": 3}`, 1)
	m, bus := newTestViewManager(t, graph)
	events := subscribe(bus)
	ctx := context.Background()

	loc, err := m.DoubleClick(ctx, DefaultView, "client-1", "O7")
	if err != nil {
		t.Fatalf("DoubleClick failed: %v", err)
	}
	if loc != "/outputs/O7" {
		t.Errorf("location = %s, want /outputs/O7", loc)
	}

	ev := waitEvent(t, events, EventNavigate)
	if ev.Client != "client-1" || ev.View != DefaultView {
		t.Errorf("navigate event addressed to %s/%s", ev.View, ev.Client)
	}
	payload := ev.Payload.(NavigatePayload)
	if payload.Location != "/outputs/O7" || payload.NodeID != "O7" {
		t.Errorf("unexpected payload %+v", payload)
	}

	if _, err := m.DoubleClick(ctx, DefaultView, "client-1", "V1"); !errors.Is(err, view.ErrUnknownGroup) {
		t.Errorf("expected ErrUnknownGroup, got %v", err)
	}
}

func TestViewManagerLifecycle(t *testing.T) {
	svc, bus := newTestGraphService(t)
	path := writeFile(t, "graph.json", testGraphJSON)
	svc.WithSnapshotFile(path)
	metrics := &fakeMetrics{}
	events := subscribe(bus)

	m := NewViewManager(svc, view.DefaultConfig(), nil, bus, metrics)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer m.CloseAll()

	if _, err := m.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	info, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if info.ID == "" || info.ID == DefaultView {
		t.Errorf("expected generated id, got %q", info.ID)
	}
	if len(m.List()) != 2 {
		t.Errorf("expected 2 views, got %d", len(m.List()))
	}

	// Rebuild picks up the changed snapshot
	smaller := `{"nodes": [{"id": "A1", "name": "Ada", "group": 0}], "links": []}`
	if err := os.WriteFile(path, []byte(smaller), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rebuilt, err := m.Rebuild(ctx, DefaultView)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if rebuilt.Nodes != 1 {
		t.Errorf("expected rebuilt view with 1 node, got %d", rebuilt.Nodes)
	}
	waitEvent(t, events, EventViewRebuilt)

	if err := m.Close(info.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	waitEvent(t, events, EventViewClosed)
	if metrics.active != 1 {
		t.Errorf("active views = %d, want 1", metrics.active)
	}
	if _, err := m.Scene(ctx, info.ID); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("expected ErrViewNotFound, got %v", err)
	}
	if err := m.Close(info.ID); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("expected ErrViewNotFound, got %v", err)
	}
}

func TestViewManagerRebuildRacesClose(t *testing.T) {
	svc, bus := newTestGraphService(t)
	svc.WithSnapshotFile(writeFile(t, "graph.json", testGraphJSON))

	m := NewViewManager(svc, view.DefaultConfig(), nil, bus, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer m.CloseAll()

	if _, _, err := m.create(ctx, "gone", true); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("expected ErrViewNotFound, got %v", err)
	}

	for i := 0; i < 20; i++ {
		info, err := m.Create(ctx)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Rebuild(ctx, info.ID)
		}()
		go func() {
			defer wg.Done()
			m.Close(info.ID)
		}()
		wg.Wait()

		for _, v := range m.List() {
			if v.ID == info.ID {
				t.Fatalf("view %s still running after close", info.ID)
			}
		}
	}
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	fast := make(chan Event, 1)
	full := make(chan Event)
	bus.Subscribe(fast)
	bus.Subscribe(full)

	// Publishing never blocks on a subscriber that is not ready
	bus.Publish(Event{Type: EventGraphCleared})

	select {
	case ev := <-fast:
		if ev.Type != EventGraphCleared {
			t.Errorf("unexpected event %s", ev.Type)
		}
	default:
		t.Error("expected event on buffered subscriber")
	}
}
