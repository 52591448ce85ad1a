//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/agentstation/staymap --repository.default-branch master --repository.path /

// Package staymap reconciles the occupancy and bedroom category of a rental
// portfolio from its catalog, reservation, calendar and override feeds, and
// keeps a tabular store in step with the result.
package staymap
