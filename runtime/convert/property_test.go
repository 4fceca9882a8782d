package convert

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/scopeflow/scopeflow/core/device"
	"github.com/scopeflow/scopeflow/core/graph"
)

// buildChain maps opcodes to statements, covering device-context movement
// (connects, switches, transparent groups) interleaved with every flat
// statement kind plus loops with and without bodies.
func buildChain(ops []int) *graph.Node {
	var nodes []*graph.Node
	for _, op := range ops {
		switch op % 16 {
		case 0:
			nodes = append(nodes, graph.New(graph.KindConnect).WithField(graph.FieldDevice, "scope"))
		case 1:
			nodes = append(nodes, graph.New(graph.KindConnect).WithField(graph.FieldDevice, "smu"))
		case 2:
			nodes = append(nodes, graph.New(graph.KindSetContext).WithField(graph.FieldDevice, "scope"))
		case 3:
			nodes = append(nodes, graph.New(graph.KindSetContext).WithField(graph.FieldDevice, "smu"))
		case 4:
			nodes = append(nodes, graph.New(graph.KindWrite).WithField(graph.FieldCommand, "*RST"))
		case 5:
			nodes = append(nodes, graph.New(graph.KindWrite).WithField(graph.FieldCommand, "ACQ:STATE RUN"))
		case 6:
			nodes = append(nodes, graph.New(graph.KindQuery).
				WithField(graph.FieldCommand, "*IDN?").
				WithField(graph.FieldTarget, "idn"))
		case 7:
			nodes = append(nodes, graph.New(graph.KindWait).WithField(graph.FieldSeconds, "0.5"))
		case 8:
			nodes = append(nodes, graph.New(graph.KindWaitComplete))
		case 9:
			nodes = append(nodes, graph.New(graph.KindComment).WithField(graph.FieldText, "note"))
		case 10:
			nodes = append(nodes, graph.New(graph.KindAssign).
				WithField(graph.FieldName, "x").
				SetValue(graph.SlotValue, graph.Number("1.5")))
		case 11:
			nodes = append(nodes, graph.New(graph.KindDisconnect))
		case 12:
			nodes = append(nodes, graph.New(graph.KindRepeat).WithField(graph.FieldCount, "2"))
		case 13:
			loop := graph.New(graph.KindRepeat).WithField(graph.FieldCount, "3")
			loop.SetBody(graph.SlotBody, graph.Chain(
				graph.New(graph.KindWrite).WithField(graph.FieldCommand, "ACQ:STATE RUN"),
				graph.New(graph.KindWait).WithField(graph.FieldSeconds, "1"),
			))
			nodes = append(nodes, loop)
		case 14:
			group := graph.New(graph.KindGroup).WithField(graph.FieldText, "Setup")
			group.SetBody(graph.SlotBody, graph.Chain(
				graph.New(graph.KindConnect).WithField(graph.FieldDevice, "smu"),
				graph.New(graph.KindWrite).WithField(graph.FieldCommand, "*RST"),
			))
			nodes = append(nodes, group)
		case 15:
			loop := graph.New(graph.KindForRange).
				WithField(graph.FieldVar, "k").
				WithField(graph.FieldFrom, "1").
				WithField(graph.FieldTo, "4").
				WithField(graph.FieldBy, "2")
			loop.SetBody(graph.SlotBody, graph.New(graph.KindQuery).
				WithField(graph.FieldCommand, "*IDN?").
				WithField(graph.FieldTarget, "idn"))
			nodes = append(nodes, loop)
		}
	}
	return graph.Chain(nodes...)
}

func TestConversionFixedPointProperty(t *testing.T) {
	reg, err := device.NewRegistry([]device.Device{
		{Alias: "scope", Backend: device.BackendVISA, Host: "10.0.0.5", Port: 4000, TimeoutSec: 10},
		{Alias: "smu", Backend: device.BackendSocket, Host: "10.0.0.9", Port: 5025, TimeoutSec: 5},
	})
	if err != nil {
		t.Fatal(err)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("graph→steps→graph→steps is a fixed point", prop.ForAll(
		func(ops []int) bool {
			first := GraphToSteps(buildChain(ops), reg)
			rebuilt, warnings := StepsToGraph(first)
			if len(warnings) != 0 {
				return false
			}
			second := GraphToSteps(rebuilt, reg)
			return cmp.Equal(first, second, ignoreIDs)
		},
		gen.SliceOf(gen.IntRange(0, 15)),
	))

	properties.Property("rebuild emits no warnings for native step lists", prop.ForAll(
		func(ops []int) bool {
			_, warnings := StepsToGraph(GraphToSteps(buildChain(ops), reg))
			return len(warnings) == 0
		},
		gen.SliceOf(gen.IntRange(0, 15)),
	))

	properties.TestingRun(t)
}
