// Package native drives the external build tool that compiles C++ sources.
//
// The build orchestrator and the consumer validator only ever need two
// operations from the tool: a configure step that binds a source tree and a
// set of toolchain settings to a build directory, and a build step that
// builds one named target in that directory. [Tool] captures exactly that;
// [CMake] implements it by shelling out to cmake. The tool's output is
// streamed unmodified and its exit status is the only success signal.
package native
