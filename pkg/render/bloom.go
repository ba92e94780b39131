package render

import (
	"fmt"

	"openglhelper"

	"github.com/go-gl/gl/v4.6-core/gl"
)

// BloomPass downscales the HDR color target, runs a two-pass separable
// Gaussian blur, and additively composites the blurred result back onto
// the main framebuffer. Gated by pkg/config.Bloom at the call site.
type BloomPass struct {
	width, height int

	downscaleFBO uint32
	pingFBO      uint32
	pongFBO      uint32
	pingTex      uint32
	pongTex      uint32
	downscaleTex uint32

	blurShader     *openglhelper.Shader
	compositeQuad  *openglhelper.VertexArrayObject
	compositeShdr  *openglhelper.Shader
	compositeVBO   *openglhelper.BufferObject
}

// fullscreenQuadVertices is a single NDC triangle-strip quad (pos.xy, uv.xy).
var fullscreenQuadVertices = []float32{
	-1, -1, 0, 0,
	1, -1, 1, 0,
	-1, 1, 0, 1,
	1, 1, 1, 1,
}

// NewBloomPass allocates the half-resolution ping-pong targets and
// compiles the blur/composite shaders.
func NewBloomPass(width, height int, blurVert, blurFrag, compVert, compFrag string) (*BloomPass, error) {
	bp := &BloomPass{width: width / 2, height: height / 2}

	blurShader, err := openglhelper.NewShader(blurVert, blurFrag)
	if err != nil {
		return nil, fmt.Errorf("bloom: compile blur shader: %w", err)
	}
	bp.blurShader = blurShader

	compShader, err := openglhelper.NewShader(compVert, compFrag)
	if err != nil {
		return nil, fmt.Errorf("bloom: compile composite shader: %w", err)
	}
	bp.compositeShdr = compShader

	bp.compositeQuad = openglhelper.NewVAO()
	bp.compositeQuad.Bind()
	bp.compositeVBO = openglhelper.NewVBO(fullscreenQuadVertices)
	bp.compositeQuad.SetVertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, 0)
	bp.compositeQuad.SetVertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, 2*4)
	bp.compositeQuad.Unbind()

	bp.downscaleTex, bp.downscaleFBO = newColorTarget(bp.width, bp.height)
	bp.pingTex, bp.pingFBO = newColorTarget(bp.width, bp.height)
	bp.pongTex, bp.pongFBO = newColorTarget(bp.width, bp.height)

	return bp, nil
}

func newColorTarget(width, height int) (tex, fbo uint32) {
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F, int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return
}

// Apply downscales sourceTex into the half-resolution target, blurs it
// horizontally then vertically, and additively composites the blurred
// result onto whatever framebuffer is currently bound (the caller's HDR
// color target).
func (bp *BloomPass) Apply(sourceTex uint32) {
	bp.blitInto(bp.downscaleFBO, sourceTex)

	bp.blurShader.Use()
	bp.blurShader.SetBool("horizontal", true)
	bp.blitInto(bp.pingFBO, bp.downscaleTex)

	bp.blurShader.SetBool("horizontal", false)
	bp.blitInto(bp.pongFBO, bp.pingTex)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE)
	bp.compositeShdr.Use()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, bp.pongTex)
	bp.compositeShdr.SetInt("bloomTex", 0)
	bp.drawQuad()
	gl.Disable(gl.BLEND)
}

func (bp *BloomPass) blitInto(fbo uint32, srcTex uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Viewport(0, 0, int32(bp.width), int32(bp.height))
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, srcTex)
	bp.drawQuad()
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (bp *BloomPass) drawQuad() {
	bp.compositeQuad.Bind()
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	bp.compositeQuad.Unbind()
}

// Cleanup releases every GPU resource the pass owns.
func (bp *BloomPass) Cleanup() {
	gl.DeleteFramebuffers(1, &bp.downscaleFBO)
	gl.DeleteFramebuffers(1, &bp.pingFBO)
	gl.DeleteFramebuffers(1, &bp.pongFBO)
	gl.DeleteTextures(1, &bp.downscaleTex)
	gl.DeleteTextures(1, &bp.pingTex)
	gl.DeleteTextures(1, &bp.pongTex)
	bp.blurShader.Delete()
	bp.compositeShdr.Delete()
	bp.compositeVBO.Delete()
	bp.compositeQuad.Delete()
}
