//go:build bdd

package steps

import (
	"fmt"

	"github.com/cucumber/godog"
)

// RegisterServiceSteps registers the step vocabulary for spec.md §8
// scenario 6 (service/RPC streaming-flag resolution).
func RegisterServiceSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^service "([^"]*)" should have (\d+) rpc$`, serviceRPCCount(tc))
	ctx.Step(`^service "([^"]*)" should have (\d+) rpcs$`, serviceRPCCount(tc))

	ctx.Step(`^rpc "([^"]*)" on service "([^"]*)" should be streaming from "([^"]*)" to "([^"]*)"$`,
		func(rpcName, serviceName, inputMsg, outputMsg string) error {
			if tc.CompileErr != nil {
				return fmt.Errorf("schema did not compile: %w", tc.CompileErr)
			}
			svc, ok := tc.Ctx.Service(serviceName)
			if !ok {
				return fmt.Errorf("service %q not found", serviceName)
			}
			rpc, ok := svc.RPC(rpcName)
			if !ok {
				return fmt.Errorf("rpc %q not found on %q", rpcName, serviceName)
			}
			if !rpc.Input.Streaming || !rpc.Output.Streaming {
				return fmt.Errorf("rpc %q streaming = {in:%v out:%v}, want both true", rpcName, rpc.Input.Streaming, rpc.Output.Streaming)
			}
			in, ok := tc.Ctx.Message(inputMsg)
			if !ok || rpc.Input.MessageID != in.ID {
				return fmt.Errorf("rpc %q input does not resolve to %q", rpcName, inputMsg)
			}
			out, ok := tc.Ctx.Message(outputMsg)
			if !ok || rpc.Output.MessageID != out.ID {
				return fmt.Errorf("rpc %q output does not resolve to %q", rpcName, outputMsg)
			}
			return nil
		})
}

func serviceRPCCount(tc *TestContext) func(string, int) error {
	return func(serviceName string, want int) error {
		if tc.CompileErr != nil {
			return fmt.Errorf("schema did not compile: %w", tc.CompileErr)
		}
		svc, ok := tc.Ctx.Service(serviceName)
		if !ok {
			return fmt.Errorf("service %q not found", serviceName)
		}
		if len(svc.RPCs) != want {
			return fmt.Errorf("rpcs = %d, want %d", len(svc.RPCs), want)
		}
		return nil
	}
}
