package automation

import (
	"strings"

	"github.com/google/uuid"

	"github.com/go-drift/e2e/pkg/semantics"
)

// Keys of an element reference object. Clients read either one.
const (
	legacyElementKey = "ELEMENT"
	w3cElementKey    = "element-6066-11e4-a52e-4f735466cecf"
)

// elementNamespace seeds element ids. Ids are derived from node keys so an
// element keeps its id across rebuilds.
var elementNamespace = uuid.MustParse("5f0b8e3c-8a1f-4c57-9d5c-3e1c6f2a9b70")

// elementRef is the JSON form of a found element.
type elementRef map[string]string

func newElementRef(id string) elementRef {
	return elementRef{legacyElementKey: id, w3cElementKey: id}
}

// elementRegistry maps element ids to node keys. It is only touched on the
// UI loop.
type elementRegistry struct {
	keys map[string]string
}

func newElementRegistry() *elementRegistry {
	return &elementRegistry{keys: make(map[string]string)}
}

// register returns the id of n, remembering its key.
func (r *elementRegistry) register(n *semantics.Node) string {
	id := strings.ToUpper(uuid.NewSHA1(elementNamespace, []byte(n.Key)).String())
	r.keys[id] = n.Key
	return id
}

// resolve finds the node for id in tree. It fails with ErrStaleElement when
// the id is known but its node is gone, and ErrNoSuchElement when the id was
// never issued.
func (r *elementRegistry) resolve(tree *semantics.Tree, id string) (*semantics.Node, error) {
	key, ok := r.keys[strings.ToUpper(id)]
	if !ok {
		return nil, ErrNoSuchElement.with("element %s was never found in this session", id)
	}
	n := tree.ByKey(key)
	if n == nil {
		return nil, ErrStaleElement.with("element %s (%s) is no longer attached to the view", id, key)
	}
	return n, nil
}

func (r *elementRegistry) refs(nodes []*semantics.Node) []elementRef {
	out := make([]elementRef, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, newElementRef(r.register(n)))
	}
	return out
}
