/*
Package versioneer provides the release version model used by the guard:
three-component tags, bump directives and the next expected version.

Usage:

	tag, err := versioneer.ParseTag("v1.2.3")
	next, err := versioneer.NextVersion(tag, "[minor] Add feature")
	fmt.Println(next) // 1.3.0
*/
package versioneer
