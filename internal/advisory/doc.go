// Package advisory is the client for the remote project analysis service.
// The service predicts an ESG score, a credibility score and a carbon risk
// for a project from its description and criterion ratings.
package advisory
