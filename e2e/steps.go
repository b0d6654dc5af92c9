package e2e

import (
	"github.com/cucumber/godog"

	"opdclaims/e2e/steps/claims"
	"opdclaims/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register claim submission and decision steps
	claims.RegisterSteps(ctx, tc)
}
