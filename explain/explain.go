// Package explain turns a finalized ExpressionActions or Chain into a
// gographviz.Graph — the visualization analogue of the original's
// dumpActions() text dump (§13 of the expanded spec). Each ExpressionActions
// becomes a graphviz record node with one child per held action; each Chain
// step nests its ExpressionActions subgraph the same way the teacher's query
// plans nest operators. DumpActions/DumpChain give the same plan a
// kr/text-indented plain-text form for terminals that can't render a graph.
package explain

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/awalterschulze/gographviz"
	"github.com/kr/text"

	"github.com/colflow/engine/actions"
	"github.com/colflow/engine/chain"
)

// ActionsGraph renders a single ExpressionActions as a graphviz Graph: one
// root record node for ea with one port per held action, in evaluation
// order, each port linked to a leaf record node naming the action's kind and
// its String() detail.
func ActionsGraph(ea *actions.ExpressionActions) *gographviz.Graph {
	gb := newGraphBuilder()
	gb.addActionsNode(ea, nil)
	return gb.graph
}

// ChainGraph renders a Chain as a graphviz Graph: one top-level record node
// per step, each holding its own ExpressionActions subgraph as a child.
func ChainGraph(c *chain.Chain) *gographviz.Graph {
	gb := newGraphBuilder()
	gb.addChainNode(c)
	return gb.graph
}

// field is a name/value pair rendered as a record-node field port.
type field struct {
	name, value string
}

// graphBuilder accumulates record nodes and port edges for a single
// gographviz.Graph, disambiguating same-named nodes with a running counter.
type graphBuilder struct {
	graph        *gographviz.Graph
	nameCounters map[string]int
}

func newGraphBuilder() *graphBuilder {
	g := gographviz.NewGraph()
	g.Directed = true
	if err := g.AddAttr("", "rankdir", "LR"); err != nil {
		log.Fatal(err)
	}
	return &graphBuilder{graph: g, nameCounters: make(map[string]int)}
}

func (gb *graphBuilder) id(name string) string {
	count := gb.nameCounters[name]
	gb.nameCounters[name]++
	return fmt.Sprintf("%s_%d", strings.Replace(name, " ", "_", -1), count)
}

// addRecordNode adds a single graphviz record node labeled name, with one
// field port per entry in fields and one child port per entry in ports, and
// returns the node's generated ID.
func (gb *graphBuilder) addRecordNode(name string, fields []field, ports []string) string {
	var labelParts []string
	labelParts = append(labelParts, fmt.Sprintf("<f0> %s", name))

	if len(fields) > 0 {
		fieldStrs := make([]string, len(fields))
		for i, f := range fields {
			fieldStrs[i] = fmt.Sprintf("<%s> %s: %s", f.name, f.name, f.value)
		}
		labelParts = append(labelParts, strings.Join(fieldStrs, "|"))
	}
	if len(ports) > 0 {
		portStrs := make([]string, len(ports))
		for i, p := range ports {
			portStrs[i] = fmt.Sprintf("<%s> %s", p, p)
		}
		labelParts = append(labelParts, strings.Join(portStrs, "|"))
	}

	label := fmt.Sprintf("\"{{%s}}\"", strings.Join(labelParts, "}|{"))
	id := gb.id(name)
	if err := gb.graph.AddNode("", id, map[string]string{
		"shape": "record",
		"label": label,
	}); err != nil {
		log.Fatal(err)
	}
	return id
}

func (gb *graphBuilder) addPortEdge(fromID, port, toID string) {
	if err := gb.graph.AddPortEdge(fromID, port, toID, "", true, map[string]string{}); err != nil {
		log.Fatal(err)
	}
}

// addActionsNode renders ea as a record node (plus its own extra fields,
// e.g. a Chain step's required_output), with every held action as a child
// leaf node, and returns the node's ID.
func (gb *graphBuilder) addActionsNode(ea *actions.ExpressionActions, extra []field) string {
	held := ea.Actions()
	ports := make([]string, len(held))
	for i := range held {
		ports[i] = "action_" + strconv.Itoa(i)
	}

	fields := append([]field{{"inputs", joinNames(ea.GetRequiredColumns())}}, extra...)
	id := gb.addRecordNode("ExpressionActions", fields, ports)

	for i, a := range held {
		childID := gb.addRecordNode(actionKind(a), []field{{"detail", a.String()}}, nil)
		gb.addPortEdge(id, ports[i], childID)
	}
	return id
}

// addChainNode renders c as a root record node with one child per step,
// each child being that step's own ExpressionActions subgraph.
func (gb *graphBuilder) addChainNode(c *chain.Chain) string {
	steps := c.Steps()
	ports := make([]string, len(steps))
	for i := range steps {
		ports[i] = "step_" + strconv.Itoa(i)
	}

	id := gb.addRecordNode("Chain", nil, ports)
	for i, step := range steps {
		childID := gb.addActionsNode(step.Actions, []field{{"required_output", joinNames(step.RequiredOutput)}})
		gb.addPortEdge(id, ports[i], childID)
	}
	return id
}

func actionKind(a actions.Action) string {
	switch a.(type) {
	case *actions.ApplyFunction:
		return "ApplyFunction"
	case *actions.AddColumn:
		return "AddColumn"
	case *actions.RemoveColumn:
		return "RemoveColumn"
	case *actions.CopyColumn:
		return "CopyColumn"
	case *actions.ArrayJoin:
		return "ArrayJoin"
	case *actions.Project:
		return "Project"
	default:
		return "Action"
	}
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}

// DumpActions is the Go analogue of the original's dumpActions(): a
// plain-text dump of every action an ExpressionActions holds, one per line.
func DumpActions(ea *actions.ExpressionActions) string {
	return ea.String()
}

// DumpChain renders every step of c, one per line, each step's own action
// dump indented two spaces beneath it via kr/text — the same text-plan
// shape EXPLAIN-style output takes in the teacher's query dumps.
func DumpChain(c *chain.Chain) string {
	var out string
	for i, step := range c.Steps() {
		if i > 0 {
			out += "\n"
		}
		out += "step " + strconv.Itoa(i) + " (required: " + joinNames(step.RequiredOutput) + "):\n"
		out += text.Indent(DumpActions(step.Actions), "  ")
	}
	return out
}
