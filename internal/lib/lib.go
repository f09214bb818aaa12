// Package lib groups the integrations that sit outside the request layers:
// Azure AD credentials (identity), Microsoft Graph (graph), the Asynq
// notification worker and detached tasks (job), and small helpers (utils).
package lib
