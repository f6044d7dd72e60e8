// Package pathutil hands out unique scratch directories, one per key.
package pathutil
