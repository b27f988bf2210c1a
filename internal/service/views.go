package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"forceview/internal/view"
)

// DefaultView is the id of the view created at startup
const DefaultView = "default"

var (
	// ErrViewNotFound is returned for unknown view ids
	ErrViewNotFound = errors.New("view not found")
	// ErrInvalidPhase is returned for unknown gesture phases
	ErrInvalidPhase = errors.New("invalid gesture phase")
)

// ViewMetrics receives view lifecycle and progress measurements
type ViewMetrics interface {
	view.TickObserver
	RecordFrame(viewID string)
	ForgetView(viewID string)
	SetActiveViews(n int)
}

// ViewInfo describes a running view
type ViewInfo struct {
	ID     string `json:"id"`
	Nodes  int    `json:"nodes"`
	Links  int    `json:"links"`
	Empty  bool   `json:"empty"`
	Reason string `json:"reason,omitempty"`
}

type viewEntry struct {
	info   ViewInfo
	loop   *view.Loop
	cancel context.CancelFunc

	// client and node of the double-click being handled; only touched on
	// the loop goroutine
	navClient string
	navNode   string
}

// ViewManager creates, serves and tears down views
type ViewManager struct {
	graph    *GraphService
	cfg      view.Config
	routes   view.Routes
	eventBus *EventBus
	metrics  ViewMetrics

	mu    sync.RWMutex
	base  context.Context
	views map[string]*viewEntry
}

// NewViewManager creates a manager building views from graph
func NewViewManager(graph *GraphService, cfg view.Config, routes view.Routes, eventBus *EventBus, metrics ViewMetrics) *ViewManager {
	if routes == nil {
		routes = view.DefaultRoutes()
	}
	return &ViewManager{
		graph:    graph,
		cfg:      cfg,
		routes:   routes,
		eventBus: eventBus,
		metrics:  metrics,
		base:     context.Background(),
		views:    make(map[string]*viewEntry),
	}
}

// Start creates the default view. Views run until ctx is cancelled or they
// are closed.
func (m *ViewManager) Start(ctx context.Context) (ViewInfo, error) {
	m.mu.Lock()
	m.base = ctx
	m.mu.Unlock()
	info, _, err := m.create(ctx, DefaultView, false)
	return info, err
}

// Create builds a new view with a random id
func (m *ViewManager) Create(ctx context.Context) (ViewInfo, error) {
	info, _, err := m.create(ctx, uuid.NewString(), false)
	return info, err
}

// create loads the snapshot and starts a loop for id. A snapshot that cannot
// be loaded yields an empty view carrying the reason. With replace set, id
// must still be running when the new view is installed; the view it replaced
// is returned.
func (m *ViewManager) create(ctx context.Context, id string, replace bool) (ViewInfo, *viewEntry, error) {
	var ctrl *view.Controller
	entry := &viewEntry{}

	snap, err := m.graph.Snapshot(ctx)
	if err == nil {
		ctrl, err = view.New(m.cfg, snap,
			view.WithRoutes(m.routes),
			view.WithNavigator(m.navigator(id, entry)))
	}
	if err != nil {
		log.Printf("View %s: failed to load graph: %v", id, err)
		ctrl = view.NewEmpty(m.cfg, err.Error())
	}

	nodes, links := ctrl.Len()
	scene := ctrl.Scene()
	entry.info = ViewInfo{ID: id, Nodes: nodes, Links: links, Empty: scene.Empty, Reason: scene.Reason}

	var observer view.TickObserver
	if m.metrics != nil {
		observer = m.metrics
	}
	entry.loop = view.NewLoop(id, ctrl, m, observer)

	m.mu.Lock()
	prev, ok := m.views[id]
	if replace && !ok {
		m.mu.Unlock()
		ctrl.Close()
		return ViewInfo{}, nil, fmt.Errorf("%s: %w", id, ErrViewNotFound)
	}
	if ok {
		prev.cancel()
	}
	loopCtx, cancel := context.WithCancel(m.base)
	entry.cancel = cancel
	m.views[id] = entry
	active := len(m.views)
	m.mu.Unlock()

	go entry.loop.Run(loopCtx)

	if m.metrics != nil {
		m.metrics.SetActiveViews(active)
	}
	m.eventBus.Publish(Event{Type: EventViewCreated, View: id, Payload: entry.info})
	log.Printf("View %s created (%d nodes, %d links)", id, nodes, links)

	return entry.info, prev, nil
}

func (m *ViewManager) navigator(id string, entry *viewEntry) view.Navigator {
	return view.NavigatorFunc(func(location string) error {
		m.eventBus.Publish(Event{
			Type:    EventNavigate,
			View:    id,
			Client:  entry.navClient,
			Payload: NavigatePayload{NodeID: entry.navNode, Location: location},
		})
		return nil
	})
}

// Rebuild replaces view id with a fresh view over the current snapshot. The
// old view's loop is stopped; it is never mutated.
func (m *ViewManager) Rebuild(ctx context.Context, id string) (ViewInfo, error) {
	if _, err := m.entry(id); err != nil {
		return ViewInfo{}, err
	}

	info, prev, err := m.create(ctx, id, true)
	if err != nil {
		return ViewInfo{}, err
	}
	<-prev.loop.Done()

	m.eventBus.Publish(Event{Type: EventViewRebuilt, View: id, Payload: info})
	return info, nil
}

// RebuildAll rebuilds every running view
func (m *ViewManager) RebuildAll(ctx context.Context) {
	for _, info := range m.List() {
		if _, err := m.Rebuild(ctx, info.ID); err != nil {
			log.Printf("Failed to rebuild view %s: %v", info.ID, err)
		}
	}
}

// Close tears down view id
func (m *ViewManager) Close(id string) error {
	m.mu.Lock()
	entry, ok := m.views[id]
	if ok {
		delete(m.views, id)
	}
	active := len(m.views)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", id, ErrViewNotFound)
	}

	entry.cancel()
	<-entry.loop.Done()

	if m.metrics != nil {
		m.metrics.SetActiveViews(active)
		m.metrics.ForgetView(id)
	}
	m.eventBus.Publish(Event{Type: EventViewClosed, View: id})
	return nil
}

// CloseAll tears down every view
func (m *ViewManager) CloseAll() {
	for _, info := range m.List() {
		_ = m.Close(info.ID)
	}
}

// List returns the running views ordered by id
func (m *ViewManager) List() []ViewInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]ViewInfo, 0, len(m.views))
	for _, e := range m.views {
		infos = append(infos, e.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func (m *ViewManager) entry(id string) (*viewEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.views[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrViewNotFound)
	}
	return e, nil
}

// do runs fn on the loop of view id
func (m *ViewManager) do(ctx context.Context, id string, fn func(*viewEntry, *view.Controller)) error {
	e, err := m.entry(id)
	if err != nil {
		return err
	}
	err = e.loop.Do(ctx, func(c *view.Controller) { fn(e, c) })
	if errors.Is(err, view.ErrLoopStopped) {
		return fmt.Errorf("%s: %w", id, ErrViewNotFound)
	}
	return err
}

// PublishFrame implements view.FrameSink
func (m *ViewManager) PublishFrame(viewID string, scene view.Scene) {
	if m.metrics != nil {
		m.metrics.RecordFrame(viewID)
	}
	m.eventBus.Publish(Event{Type: EventFrame, View: viewID, Payload: scene})
}

// Scene returns a copy of the current scene of view id
func (m *ViewManager) Scene(ctx context.Context, id string) (view.Scene, error) {
	var scene view.Scene
	err := m.do(ctx, id, func(_ *viewEntry, c *view.Controller) {
		scene = c.Snapshot()
	})
	return scene, err
}

// Nodes returns the node states of view id
func (m *ViewManager) Nodes(ctx context.Context, id string) ([]view.NodeState, error) {
	var nodes []view.NodeState
	err := m.do(ctx, id, func(_ *viewEntry, c *view.Controller) {
		nodes = c.Nodes()
	})
	return nodes, err
}

// Drag phases
const (
	DragStart = "start"
	DragMove  = "move"
	DragEnd   = "end"
)

// Drag applies a drag gesture phase to node nodeID of view id
func (m *ViewManager) Drag(ctx context.Context, id, phase, nodeID string, x, y float64) error {
	var gestureErr error
	err := m.do(ctx, id, func(_ *viewEntry, c *view.Controller) {
		switch phase {
		case DragStart:
			gestureErr = c.DragStart(nodeID)
		case DragMove:
			gestureErr = c.DragMove(nodeID, x, y)
		case DragEnd:
			gestureErr = c.DragEnd(nodeID)
		default:
			gestureErr = fmt.Errorf("drag %q: %w", phase, ErrInvalidPhase)
		}
	})
	if err != nil {
		return err
	}
	return gestureErr
}

// Hover phases
const (
	HoverEnter = "enter"
	HoverLeave = "leave"
)

// Hover applies a pointer enter or leave to node nodeID of view id
func (m *ViewManager) Hover(ctx context.Context, id, phase, nodeID string, pageX, pageY float64) error {
	var gestureErr error
	err := m.do(ctx, id, func(_ *viewEntry, c *view.Controller) {
		switch phase {
		case HoverEnter:
			gestureErr = c.PointerEnter(nodeID, pageX, pageY)
		case HoverLeave:
			gestureErr = c.PointerLeave(nodeID)
		default:
			gestureErr = fmt.Errorf("hover %q: %w", phase, ErrInvalidPhase)
		}
	})
	if err != nil {
		return err
	}
	return gestureErr
}

// DoubleClick resolves the detail location of nodeID and sends a navigate
// event to clientID (every client of the view when empty)
func (m *ViewManager) DoubleClick(ctx context.Context, id, clientID, nodeID string) (string, error) {
	var (
		location   string
		gestureErr error
	)
	err := m.do(ctx, id, func(e *viewEntry, c *view.Controller) {
		e.navClient, e.navNode = clientID, nodeID
		location, gestureErr = c.DoubleClick(nodeID)
		e.navClient, e.navNode = "", ""
	})
	if err != nil {
		return "", err
	}
	return location, gestureErr
}

// NodeAt returns the node of view id under scene coordinates (x, y)
func (m *ViewManager) NodeAt(ctx context.Context, id string, x, y float64) (string, bool, error) {
	var (
		nodeID string
		found  bool
	)
	err := m.do(ctx, id, func(_ *viewEntry, c *view.Controller) {
		nodeID, found = c.NodeAt(x, y)
	})
	return nodeID, found, err
}
