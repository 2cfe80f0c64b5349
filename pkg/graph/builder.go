package graph

import (
	"fmt"
	"log"
	"math"

	"turnrouter/pkg/feature"
	"turnrouter/pkg/geo"
	"turnrouter/pkg/profile"
)

// ErrIDCollision is returned when an OSM node id is at or above
// PhantomIDBase. That range is reserved for phantom clones minted while
// applying turn restrictions, so its presence in input data means the
// dataset can't be trusted.
type ErrIDCollision int64

func (e ErrIDCollision) Error() string {
	return fmt.Sprintf("phantom-node id collision: OSM node id %d", int64(e))
}

// ErrBadProfile is returned when a Profile returns a way penalty that isn't
// finite and >= 1 — a bug in the Profile, not a data issue.
type ErrBadProfile struct {
	Penalty float64
}

func (e ErrBadProfile) Error() string {
	return fmt.Sprintf("profile returned invalid way penalty %v: penalties must be finite and >= 1", e.Penalty)
}

// FeatureSource is a lazy, finite, single-pass producer of features,
// matching the pull-based Scan/Err style github.com/paulmach/osm's
// osmpbf.Scanner already uses. turnrouter/pkg/osmsource implements it by
// wrapping that scanner.
type FeatureSource interface {
	Scan() bool
	Feature() feature.Feature
	Err() error
}

// Logger receives the diagnostics AddFeatures emits for recoverable data
// issues: unknown references, malformed or unsatisfiable turn restrictions.
type Logger interface {
	Warnf(format string, args ...any)
}

type stdLogger struct{}

func (stdLogger) Warnf(format string, args ...any) {
	log.Printf("warning: "+format, args...)
}

// AddFeatures ingests a batch of features into the graph, applying p's
// rules and materialising turn restrictions via phantom-node cloning. It
// may be called more than once on the same graph to merge additional
// batches; a node id already in the graph keeps its existing node, and
// later edges between the same pair of nodes overwrite earlier ones. Calls
// must be serialized by the caller.
//
// Most data-quality problems (unknown references, relations that aren't
// well-formed turn restrictions, restrictions whose route doesn't exist)
// are reported through logger and otherwise recovered from by dropping the
// offending feature. ErrIDCollision and ErrBadProfile abort the whole call,
// since they mean the input or the profile can't be trusted at all.
func (g *Graph) AddFeatures(p profile.Profile, src FeatureSource, logger Logger) error {
	if logger == nil {
		logger = stdLogger{}
	}
	b := &builder{
		g:           g,
		profile:     p,
		logger:      logger,
		unusedNodes: make(map[int64]struct{}),
		wayNodes:    make(map[int64][]int64),
	}
	for src.Scan() {
		if err := b.addFeature(src.Feature()); err != nil {
			return err
		}
	}
	if err := src.Err(); err != nil {
		return err
	}
	b.cleanup()
	return nil
}

// builder holds the state scoped to a single AddFeatures call: nodes added
// this call that no accepted way has touched yet (dropped at cleanup, since
// they can never be reached), and the node lists of accepted ways (needed
// to resolve relation members naming a way).
type builder struct {
	g       *Graph
	profile profile.Profile
	logger  Logger

	unusedNodes map[int64]struct{}
	wayNodes    map[int64][]int64
}

func (b *builder) addFeature(f feature.Feature) error {
	switch v := f.(type) {
	case feature.Node:
		return b.addNode(v)
	case feature.Way:
		return b.addWay(v)
	case feature.Relation:
		b.addRelation(v)
		return nil
	default:
		return fmt.Errorf("unrecognised feature type %T", f)
	}
}

func (b *builder) addNode(n feature.Node) error {
	if n.ID >= PhantomIDBase {
		b.logger.Warnf("phantom-node id collision: OSM node id %d", n.ID)
		return ErrIDCollision(n.ID)
	}
	if _, exists := b.g.nodes[n.ID]; exists {
		return nil
	}
	b.g.nodes[n.ID] = Node{ID: n.ID, Position: n.Position, ExternalID: n.ID}
	b.unusedNodes[n.ID] = struct{}{}
	return nil
}

func (b *builder) addWay(w feature.Way) error {
	penalty, ok := b.profile.WayPenalty(w.Tags)
	if !ok {
		return nil
	}
	if math.IsNaN(penalty) || math.IsInf(penalty, 0) || penalty < 1 {
		return ErrBadProfile{Penalty: penalty}
	}

	nodes := b.filterWayNodes(w)
	if nodes == nil {
		return nil
	}

	forward, backward := b.profile.WayDirection(w.Tags)
	if !forward && !backward {
		return nil
	}

	for i := 0; i+1 < len(nodes); i++ {
		left, right := nodes[i], nodes[i+1]
		cost := penalty * geo.Haversine(b.g.nodes[left].Position, b.g.nodes[right].Position)
		if forward {
			b.setEdge(left, right, cost)
		}
		if backward {
			b.setEdge(right, left, cost)
		}
	}

	for _, id := range nodes {
		delete(b.unusedNodes, id)
	}
	b.wayNodes[w.ID] = nodes
	return nil
}

func (b *builder) filterWayNodes(w feature.Way) []int64 {
	nodes := make([]int64, 0, len(w.Nodes))
	for _, id := range w.Nodes {
		if _, ok := b.g.nodes[id]; ok {
			nodes = append(nodes, id)
		} else {
			b.logger.Warnf("way %d references unknown node %d - skipping node", w.ID, id)
		}
	}
	if len(nodes) < 2 {
		b.logger.Warnf("way %d too short after filtering - skipping way", w.ID)
		return nil
	}
	return nodes
}

func (b *builder) setEdge(from, to int64, cost float64) {
	m, ok := b.g.edges[from]
	if !ok {
		m = make(map[int64]float64)
		b.g.edges[from] = m
	}
	m[to] = cost
}

func (b *builder) cleanup() {
	for id := range b.unusedNodes {
		delete(b.g.nodes, id)
	}
}

// --- turn restrictions -----------------------------------------------

func (b *builder) addRelation(r feature.Relation) {
	kind := b.profile.IsTurnRestriction(r.Tags)
	if kind == profile.Inapplicable {
		return
	}

	route, err := b.restrictionRoute(r)
	if err != nil {
		b.logger.Warnf("turn restriction %d: %v - dropping", r.ID, err)
		return
	}

	change := newGraphChange(b.g)
	clonedRoute, ok := change.cloneRoute(route)
	if !ok {
		if kind == profile.Mandatory {
			b.logger.Warnf("turn restriction %d: mandates a non-existing route - nothing to do", r.ID)
		} else {
			b.logger.Warnf("turn restriction %d: prohibits a non-existing route - nothing to do", r.ID)
		}
		return
	}

	if kind == profile.Mandatory {
		for i := 1; i+1 < len(clonedRoute); i++ {
			change.ensureOnlyEdge(clonedRoute[i], clonedRoute[i+1])
		}
	} else {
		last := len(clonedRoute)
		change.edgesToRemove[edgeKey{clonedRoute[last-2], clonedRoute[last-1]}] = struct{}{}
	}
	change.apply()
}

// restrictionRoute resolves a restriction relation's from/via/to members
// into a single glued sequence of real OSM node ids describing the
// restricted route, e.g. [from-entry, via-node(s)..., to-exit].
func (b *builder) restrictionRoute(r feature.Relation) ([]int64, error) {
	var fromMembers, viaMembers, toMembers []feature.RelationMember
	for _, m := range r.Members {
		switch m.Role {
		case "from":
			fromMembers = append(fromMembers, m)
		case "via":
			viaMembers = append(viaMembers, m)
		case "to":
			toMembers = append(toMembers, m)
		}
	}
	if len(fromMembers) != 1 {
		return nil, fmt.Errorf("expected exactly one 'from' member, found %d", len(fromMembers))
	}
	if len(toMembers) != 1 {
		return nil, fmt.Errorf("expected exactly one 'to' member, found %d", len(toMembers))
	}
	if len(viaMembers) < 1 {
		return nil, fmt.Errorf("expected at least one 'via' member, found none")
	}

	members := make([]feature.RelationMember, 0, 2+len(viaMembers))
	members = append(members, fromMembers[0])
	members = append(members, viaMembers...)
	members = append(members, toMembers[0])

	memberNodes := make([][]int64, len(members))
	for i, m := range members {
		nodes, err := b.memberNodes(m)
		if err != nil {
			return nil, err
		}
		memberNodes[i] = nodes
	}

	return flattenRestrictionNodes(memberNodes)
}

func (b *builder) memberNodes(m feature.RelationMember) ([]int64, error) {
	switch m.Type {
	case feature.MemberNode:
		if m.Role != "via" {
			return nil, fmt.Errorf("invalid type of %s member: node", m.Role)
		}
		if _, ok := b.g.nodes[m.Ref]; !ok {
			return nil, fmt.Errorf("references unknown node %d", m.Ref)
		}
		return []int64{m.Ref}, nil
	case feature.MemberWay:
		nodes, ok := b.wayNodes[m.Ref]
		if !ok {
			return nil, fmt.Errorf("references unknown or rejected way %d", m.Ref)
		}
		return nodes, nil
	default:
		return nil, fmt.Errorf("invalid type of %s member: %s", m.Role, m.Type)
	}
}

// flattenRestrictionNodes glues a sequence of member node lists (one per
// from/via/to member, in relation order) into a single path, reversing
// individual members as needed so consecutive members share an endpoint.
func flattenRestrictionNodes(memberNodes [][]int64) ([]int64, error) {
	nodes := make([]int64, 0)
	for i, m := range memberNodes {
		m := append([]int64(nil), m...)
		last := len(m) - 1

		if i == 0 {
			next := memberNodes[1]
			switch {
			case m[last] == next[0] || m[last] == next[len(next)-1]:
				// already oriented correctly
			case m[0] == next[0] || m[0] == next[len(next)-1]:
				reverseInt64(m)
			default:
				return nil, fmt.Errorf("'from' member is disjoined from the first 'via' member")
			}
		} else {
			switch nodes[len(nodes)-1] {
			case m[0]:
				// already oriented correctly
			case m[last]:
				reverseInt64(m)
			default:
				return nil, fmt.Errorf("member %d is disjoined from the previous member", i)
			}
		}

		switch {
		case i == 0:
			nodes = append(nodes, m[len(m)-2:]...)
		case i == len(memberNodes)-1:
			nodes = append(nodes, m[1])
		default:
			nodes = append(nodes, m[1:]...)
		}
	}
	return nodes, nil
}

func reverseInt64(s []int64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// edgeKey identifies a single directed edge for staged removal.
type edgeKey struct {
	from, to int64
}

// graphChange stages a restriction's phantom-node clones and edge
// adjustments so they can be discarded wholesale if the restriction's route
// turns out not to exist, and applied atomically if it does.
type graphChange struct {
	g *Graph

	phantomCounter int64
	newNodes       map[int64]int64 // clone id -> original id it was cloned from
	edgesToAdd     map[int64]map[int64]float64
	edgesToRemove  map[edgeKey]struct{}
}

func newGraphChange(g *Graph) *graphChange {
	return &graphChange{
		g:              g,
		phantomCounter: g.phantomCounter,
		newNodes:       make(map[int64]int64),
		edgesToAdd:     make(map[int64]map[int64]float64),
		edgesToRemove:  make(map[edgeKey]struct{}),
	}
}

// cloneRoute walks a route of real OSM node ids and, whenever the route
// re-enters a node it needs to later treat differently from unrestricted
// traffic passing through it, mints a phantom clone of that node so the
// restriction's edge edits land on the clone instead of the shared
// original. It returns ok=false if any step of the route isn't actually an
// edge in the graph.
func (c *graphChange) cloneRoute(route []int64) ([]int64, bool) {
	cloned := []int64{route[0]}
	for _, nextOSMID := range route[1:] {
		from := cloned[len(cloned)-1]
		originalID, ok := c.toNodeID(from, nextOSMID)
		if !ok {
			return nil, false
		}

		isLast := nextOSMID == route[len(route)-1]
		isClone := nextOSMID != originalID
		var next int64
		if isClone || isLast {
			next = originalID
		} else {
			cost, ok := c.edgeCost(from, originalID)
			if !ok {
				return nil, false
			}
			next = c.cloneNode(originalID)
			c.edgesToRemove[edgeKey{from, originalID}] = struct{}{}
			c.addEdge(from, next, cost)
		}
		cloned = append(cloned, next)
	}
	return cloned, true
}

// toNodeID finds the neighbour of from (resolving from to the original
// node it may be a pending clone of) whose external OSM id is toOSMID.
func (c *graphChange) toNodeID(from, toOSMID int64) (int64, bool) {
	original := from
	if orig, ok := c.newNodes[from]; ok {
		original = orig
	}
	for candidate := range c.g.edges[original] {
		if node, ok := c.g.nodes[candidate]; ok && node.ExternalID == toOSMID {
			return candidate, true
		}
	}
	return 0, false
}

func (c *graphChange) edgeCost(from, to int64) (float64, bool) {
	if adds, ok := c.edgesToAdd[from]; ok {
		if cost, ok := adds[to]; ok {
			return cost, true
		}
	}
	original := from
	if orig, ok := c.newNodes[from]; ok {
		original = orig
	}
	cost, ok := c.g.edges[original][to]
	return cost, ok
}

func (c *graphChange) cloneNode(originalID int64) int64 {
	c.phantomCounter++
	c.newNodes[c.phantomCounter] = originalID
	return c.phantomCounter
}

func (c *graphChange) addEdge(from, to int64, cost float64) {
	m, ok := c.edgesToAdd[from]
	if !ok {
		m = make(map[int64]float64)
		c.edgesToAdd[from] = m
	}
	m[to] = cost
}

// ensureOnlyEdge restricts fromNodeID's outgoing edges to just the one
// leading to toNodeID, removing every other candidate route a mandatory
// restriction's "from" or intermediate "via" step could otherwise take. A
// later call overwrites the pruning of an earlier one for the same node, so
// the last mandatory restriction touching a given clone wins.
func (c *graphChange) ensureOnlyEdge(fromNodeID, toNodeID int64) {
	original, isClone := c.newNodes[fromNodeID]
	if !isClone {
		original = fromNodeID
	}

	if adds, ok := c.edgesToAdd[fromNodeID]; ok {
		kept := make(map[int64]float64)
		if cost, ok := adds[toNodeID]; ok {
			kept[toNodeID] = cost
		}
		c.edgesToAdd[fromNodeID] = kept
	}

	for to := range c.g.edges[original] {
		if to != toNodeID {
			c.edgesToRemove[edgeKey{fromNodeID, to}] = struct{}{}
		}
	}
}

// apply materialises every staged clone and edge edit into the graph.
func (c *graphChange) apply() {
	c.g.phantomCounter = c.phantomCounter

	for cloneID, originalID := range c.newNodes {
		original := c.g.nodes[originalID]
		c.g.nodes[cloneID] = Node{ID: cloneID, Position: original.Position, ExternalID: original.ExternalID}

		edges := make(map[int64]float64, len(c.g.edges[originalID]))
		for to, cost := range c.g.edges[originalID] {
			edges[to] = cost
		}
		c.g.edges[cloneID] = edges
	}

	for key := range c.edgesToRemove {
		delete(c.g.edges[key.from], key.to)
	}

	for from, adds := range c.edgesToAdd {
		m, ok := c.g.edges[from]
		if !ok {
			m = make(map[int64]float64)
			c.g.edges[from] = m
		}
		for to, cost := range adds {
			m[to] = cost
		}
	}
}
