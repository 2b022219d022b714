// Package lifecycle binds the workflow orchestrator to the
// process/container manager boundary.
//
// It declares the Manager contract the orchestrator calls to provision,
// start, stop and inspect an environment's services, and builds the canned
// plans (install, start, stop, status) for a named environment such as
// "agent" or "main". Plan builders only assemble steps; all execution,
// retry, gating and rollback behavior lives in the workflow package.
//
//	env := lifecycle.Environment{
//	    Name:     "agent",
//	    Services: []string{"db", "api"},
//	    Gate:     "main",
//	}
//
//	plan, err := lifecycle.InstallPlan(env, dockerManager)
//	if err != nil {
//	    return err
//	}
//	result := orch.Run(ctx, plan)
package lifecycle
