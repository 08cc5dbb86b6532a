// Package runtime provides the narrow command contract over a container
// runtime: list, create, start, stop, remove, and exec-probe.
//
// The engine never talks to the runtime directly; it goes through the Runtime
// interface so tests can substitute a fake and so the fragile parsing of
// human-readable status and port columns stays isolated in this package
// (ParseStatus, ParsePorts), covered by fixed-sample tests.
//
// CLIRuntime shells out to the docker CLI; podman is supported through the
// same implementation since it mirrors docker's command surface. Commands are
// issued through an exec.CommandContext variable that tests replace with a
// helper-process mock.
//
// Failure semantics: every failed invocation is an InvocationError carrying
// the runtime's raw combined output. Remove treats "no such container" as
// success, because absence of the object is the desired outcome.
package runtime
