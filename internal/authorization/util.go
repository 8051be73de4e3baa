// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

func WorkspaceResource(workspaceID string) string {
	return "workspace:" + workspaceID
}

func decisionLabels(min string, decision string) map[string]string {
	return map[string]string{"role": min, "decision": decision}
}
