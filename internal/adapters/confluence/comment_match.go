package confluence

import "strings"

// UnmatchedComment is a marker from old_xhtml that found no matching
// container in new_xhtml (§4.7 step 6).
type UnmatchedComment struct {
	RefID string
	Text  string
}

// PreserveResult is the output of PreserveComments.
type PreserveResult struct {
	HTML              string
	UnmatchedComments []UnmatchedComment
}

// oldMarker is one inline-comment-marker found while walking old_xhtml,
// together with enough context to relocate it in new_xhtml.
type oldMarker struct {
	node      *treeNode
	refID     string
	container *treeNode // containing block-level element
	signature string    // container's text signature at parse time
	offset    int        // marker's offset within the container's signature
}

// blockTags are the element names considered candidate "container" nodes
// for comment relocation (§4.7 step 3-4). Not exhaustive by design: any
// ancestor outside this set is walked through rather than treated as a
// matchable unit, since Confluence storage format nests markers inside
// ordinary block content.
var blockTags = map[string]bool{
	"p": true, "li": true, "td": true, "th": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"div": true,
}

// PreserveComments re-inserts inline-comment markers from oldXHTML into
// newXHTML by matching their containing block's text signature, per §4.7.
func PreserveComments(oldXHTML, newXHTML string, threshold float64) (*PreserveResult, error) {
	oldRoot, err := parseFragment(convertHTMLEntities(oldXHTML))
	if err != nil {
		return nil, err
	}
	newRoot, err := parseFragment(convertHTMLEntities(newXHTML))
	if err != nil {
		return nil, err
	}

	markers := collectMarkers(oldRoot, nil)
	containers := collectContainers(newRoot)

	var unmatched []UnmatchedComment
	prevIndex := -1

	for _, m := range markers {
		idx := bestMatch(m, containers, prevIndex, threshold)
		if idx < 0 {
			refID := m.refID
			unmatched = append(unmatched, UnmatchedComment{RefID: refID, Text: strings.TrimSpace(m.node.innerSignature())})
			continue
		}
		prevIndex = idx
		insertMarker(containers[idx].node, m)
	}

	return &PreserveResult{HTML: serializeFragment(newRoot), UnmatchedComments: unmatched}, nil
}

// collectMarkers walks old recursively, recording every comment marker
// together with its nearest block-tag ancestor (or its direct parent, if
// no block ancestor is found).
func collectMarkers(node *treeNode, blockAncestor *treeNode) []oldMarker {
	var out []oldMarker
	container := blockAncestor
	if blockTags[node.Tag] {
		container = node
	}

	for _, child := range node.Children {
		if child.isCommentMarker() {
			ref, _ := child.markerRef()
			home := container
			if home == nil {
				home = node
			}
			out = append(out, oldMarker{
				node:      child,
				refID:     ref,
				container: home,
				signature: home.textSignature(),
				offset:    markerOffset(home, child),
			})
		}
		out = append(out, collectMarkers(child, container)...)
	}
	return out
}

type containerCandidate struct {
	node      *treeNode
	signature string
}

// collectContainers flattens the new tree into block-level container
// candidates in document order.
func collectContainers(node *treeNode) []containerCandidate {
	var out []containerCandidate
	var walk func(n *treeNode)
	walk = func(n *treeNode) {
		if blockTags[n.Tag] {
			out = append(out, containerCandidate{node: n, signature: n.textSignature()})
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(node)
	return out
}

// bestMatch scores every candidate container against m: an exact signature
// match scores 1.0, any other candidate its Jaccard similarity, skipped when
// below threshold. The highest score wins; ties (including an exact match
// against a Jaccard score of 1.0) prefer the candidate closest in document
// order to prevIndex, the previously matched position, for monotonicity.
func bestMatch(m oldMarker, containers []containerCandidate, prevIndex int, threshold float64) int {
	best := -1
	bestScore := -1.0
	bestDistance := -1

	for i, c := range containers {
		var score float64
		if c.signature == m.signature && m.signature != "" {
			score = 1.0
		} else {
			score = jaccardSimilarity(m.signature, c.signature)
			if score < threshold {
				continue
			}
		}

		distance := i - prevIndex
		if distance < 0 {
			distance = -distance
		}
		if score > bestScore || (score == bestScore && distance < bestDistance) {
			best, bestScore, bestDistance = i, score, distance
		}
	}
	return best
}

func jaccardSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

// insertMarker splices a copy of m's marker element into its matched
// container (§4.7 step 5). It first tries an exact substring match of the
// marker's own text within the container's own text run (the common case
// of an unchanged or near-unchanged paragraph); failing that, it falls
// back to the proportional offset recorded at collection time, snapped to
// the nearest preceding word boundary.
func insertMarker(container *treeNode, m oldMarker) {
	markerCopy := &treeNode{Tag: m.node.Tag, Text: m.node.Text, Attrs: cloneAttrs(m.node.Attrs), Children: m.node.Children}

	var present func(n *treeNode) bool
	present = func(n *treeNode) bool {
		for _, c := range n.Children {
			if c.isCommentMarker() {
				if ref, _ := c.markerRef(); ref == m.refID {
					return true
				}
			}
			if present(c) {
				return true
			}
		}
		return false
	}
	if present(container) {
		return
	}

	markerText := strings.TrimSpace(m.node.innerSignature())
	if markerText != "" {
		if idx := strings.Index(container.Text, markerText); idx >= 0 {
			spliceText(container, markerCopy, idx, idx+len(markerText), 0)
			return
		}
	}

	target := proportionalOffset(m, container)
	target = snapToWordBoundary(container.Text, target)
	spliceText(container, markerCopy, target, target, 0)
}

func cloneAttrs(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func proportionalOffset(m oldMarker, container *treeNode) int {
	oldLen := len(m.signature)
	if oldLen == 0 {
		return 0
	}
	newLen := len(container.Text)
	offset := m.offset * newLen / oldLen
	if offset > newLen {
		offset = newLen
	}
	return offset
}

func snapToWordBoundary(text string, offset int) int {
	if offset <= 0 || offset >= len(text) {
		return offset
	}
	for offset > 0 && text[offset-1] != ' ' {
		offset--
	}
	return offset
}

// spliceText splits container.Text at [start,end) and inserts marker as a
// child at position insertIdx, carrying the trailing text as the marker's
// tail.
func spliceText(container, marker *treeNode, start, end, insertIdx int) {
	before := container.Text[:start]
	after := container.Text[end:]
	container.Text = before
	marker.Tail = after

	children := make([]*treeNode, 0, len(container.Children)+1)
	children = append(children, container.Children[:insertIdx]...)
	children = append(children, marker)
	children = append(children, container.Children[insertIdx:]...)
	container.Children = children
}
