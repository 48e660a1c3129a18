package gpu

import "fmt"

// ShaderReadError reports a shader source file that could not be read.
type ShaderReadError struct {
	Path string
	Err  error
}

func (e *ShaderReadError) Error() string {
	return fmt.Sprintf("read shader %s: %v", e.Path, e.Err)
}

func (e *ShaderReadError) Unwrap() error { return e.Err }

// ShaderCompileError carries the driver's info log for a failed compile.
type ShaderCompileError struct {
	Stage Stage
	Path  string
	Log   string
}

func (e *ShaderCompileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("compile %s shader %s: %s", e.Stage, e.Path, e.Log)
	}
	return fmt.Sprintf("compile %s shader: %s", e.Stage, e.Log)
}

// ProgramLinkError carries the driver's info log for a failed link.
type ProgramLinkError struct {
	Log string
}

func (e *ProgramLinkError) Error() string {
	return "link program: " + e.Log
}

// TextureReadError reports an image file that could not be read.
type TextureReadError struct {
	Path string
	Err  error
}

func (e *TextureReadError) Error() string {
	return fmt.Sprintf("read texture %s: %v", e.Path, e.Err)
}

func (e *TextureReadError) Unwrap() error { return e.Err }

// TextureDecodeError reports image data that could not be decoded.
type TextureDecodeError struct {
	Path string
	Err  error
}

func (e *TextureDecodeError) Error() string {
	return fmt.Sprintf("decode texture %s: %v", e.Path, e.Err)
}

func (e *TextureDecodeError) Unwrap() error { return e.Err }
