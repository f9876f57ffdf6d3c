// Package pagegen defines the core types and collaborator interfaces shared by the
// static page generation pipeline: entity records, fetch results, page targets and
// the run summary, plus the placeholder entity and slug helpers every page relies on.
package pagegen
