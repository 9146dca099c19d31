// Package article turns a source (URL, file or stdin) into plain article
// text ready for sentence splitting.
package article
