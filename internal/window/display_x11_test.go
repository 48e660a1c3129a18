//go:build linux

package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextAttribList(t *testing.T) {
	tests := []struct {
		name  string
		attrs ContextAttributes
		want  []int32
	}{
		{
			name: "core",
			attrs: ContextAttributes{
				API: APIOpenGL, Major: 3, Minor: 3,
				Profile: ProfileCore, ForwardCompatible: true,
			},
			want: []int32{
				glxContextMajorVersion, 3, glxContextMinorVersion, 3,
				glxContextFlags, glxContextFwdCompatBit,
				glxContextProfileMask, glxContextCoreProfile,
				glxNone,
			},
		},
		{
			name: "core debug",
			attrs: ContextAttributes{
				API: APIOpenGL, Major: 3, Minor: 3,
				Profile: ProfileCore, ForwardCompatible: true, Debug: true,
			},
			want: []int32{
				glxContextMajorVersion, 3, glxContextMinorVersion, 3,
				glxContextFlags, glxContextDebugBit | glxContextFwdCompatBit,
				glxContextProfileMask, glxContextCoreProfile,
				glxNone,
			},
		},
		{
			name:  "gles without version asks for 2.0",
			attrs: ContextAttributes{API: APIOpenGLES},
			want: []int32{
				glxContextMajorVersion, 2, glxContextMinorVersion, 0,
				glxContextProfileMask, glxContextES2ProfileBits,
				glxNone,
			},
		},
		{
			name:  "gles debug",
			attrs: ContextAttributes{API: APIOpenGLES, Debug: true},
			want: []int32{
				glxContextMajorVersion, 2, glxContextMinorVersion, 0,
				glxContextFlags, glxContextDebugBit,
				glxContextProfileMask, glxContextES2ProfileBits,
				glxNone,
			},
		},
		{
			name:  "gles explicit version",
			attrs: ContextAttributes{API: APIOpenGLES, Major: 3, Minor: 2},
			want: []int32{
				glxContextMajorVersion, 3, glxContextMinorVersion, 2,
				glxContextProfileMask, glxContextES2ProfileBits,
				glxNone,
			},
		},
		{
			name:  "legacy",
			attrs: ContextAttributes{API: APIOpenGL, Major: 2, Minor: 1},
			want: []int32{
				glxContextMajorVersion, 2, glxContextMinorVersion, 1,
				glxNone,
			},
		},
		{
			name:  "compatibility",
			attrs: ContextAttributes{API: APIOpenGL, Major: 4, Minor: 6, Profile: ProfileCompatibility},
			want: []int32{
				glxContextMajorVersion, 4, glxContextMinorVersion, 6,
				glxContextProfileMask, glxContextCompatProfile,
				glxNone,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contextAttribList(tt.attrs))
		})
	}
}

func TestContextAttribListKeepsAttributesVersionless(t *testing.T) {
	attrs := ContextAttributes{API: APIOpenGLES}
	contextAttribList(attrs)
	assert.Zero(t, attrs.Major)
	assert.Equal(t, "OpenGL ES", attrs.String())
}

// attribValue returns the value paired with name in a None-terminated list.
func attribValue(list []int32, name int32) (int32, bool) {
	for i := 0; i+1 < len(list); i += 2 {
		if list[i] == name {
			return list[i+1], true
		}
	}
	return 0, false
}

func TestFBConfigTemplate(t *testing.T) {
	tmpl := fbConfigTemplate()
	assert.Equal(t, int32(glxNone), tmpl[len(tmpl)-1])
	assert.Equal(t, 1, len(tmpl)%2, "pairs plus terminator")

	for name, want := range map[int32]int32{
		glxDepthSize:    24,
		glxAlphaSize:    8,
		glxDoubleBuffer: 1,
		glxDrawableType: glxWindowBit,
	} {
		got, ok := attribValue(tmpl, name)
		assert.True(t, ok, "attribute %#x", name)
		assert.Equal(t, want, got, "attribute %#x", name)
	}
}
