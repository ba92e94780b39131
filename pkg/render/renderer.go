package render

import (
	"fmt"
	"sort"

	"openglhelper"

	"github.com/duskline/voxelcore/pkg/lod"
	"github.com/duskline/voxelcore/pkg/mesh"
	"github.com/duskline/voxelcore/pkg/voxel"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// Renderer owns the window, camera, and the three draw passes (opaque,
// voxel-model, transparent) that read straight out of the mesher's GPU
// slabs. It is the only thing in the module allowed to touch GL state.
type Renderer struct {
	window *openglhelper.Window
	camera *Camera

	opaqueShader      *openglhelper.Shader
	voxelModelShader  *openglhelper.Shader
	transparentShader *openglhelper.Shader
	selectionShader   *openglhelper.Shader

	vao *openglhelper.VertexArrayObject

	selectionVAO *openglhelper.VertexArrayObject
	selectionVBO *openglhelper.BufferObject

	slabs mesh.Slabs

	bloom       *BloomPass
	bloomActive bool

	isWireframeMode bool
	isClosed        bool
}

// NewRenderer opens a window, compiles shaders, and binds the given GPU
// slabs as the sole source of vertex data: there is no per-mesh vertex
// buffer, every face is a 4-vertex quad indexed out of the shared slab.
func NewRenderer(width, height int, title string, vsync bool, slabs mesh.Slabs, shaderDir string) (*Renderer, error) {
	window, err := openglhelper.NewWindow(width, height, title, vsync)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	camera := NewCamera(mgl32.Vec3{0, 64, 0})

	r := &Renderer{window: window, camera: camera, slabs: slabs}

	window.GLFWWindow().SetKeyCallback(r.keyCallback)
	window.GLFWWindow().SetCursorPosCallback(r.cursorPosCallback)
	window.GLFWWindow().SetScrollCallback(r.scrollCallback)
	window.GLFWWindow().SetFramebufferSizeCallback(r.framebufferSizeCallback)

	opaque, err := openglhelper.LoadShaderFromFiles(shaderDir+"/opaque.vert", shaderDir+"/opaque.frag")
	if err != nil {
		return nil, fmt.Errorf("failed to load opaque shader: %w", err)
	}
	r.opaqueShader = opaque

	voxelModel, err := openglhelper.LoadShaderFromFiles(shaderDir+"/voxel_model.vert", shaderDir+"/voxel_model.frag")
	if err != nil {
		return nil, fmt.Errorf("failed to load voxel-model shader: %w", err)
	}
	r.voxelModelShader = voxelModel

	transparent, err := openglhelper.LoadShaderFromFiles(shaderDir+"/transparent.vert", shaderDir+"/transparent.frag")
	if err != nil {
		return nil, fmt.Errorf("failed to load transparent shader: %w", err)
	}
	r.transparentShader = transparent

	selection, err := openglhelper.LoadShaderFromFiles(shaderDir+"/selection.vert", shaderDir+"/selection.frag")
	if err != nil {
		return nil, fmt.Errorf("failed to load selection shader: %w", err)
	}
	r.selectionShader = selection

	r.vao = openglhelper.NewVAO()

	r.selectionVAO = openglhelper.NewVAO()
	r.selectionVAO.Bind()
	r.selectionVBO = openglhelper.NewVBO(unitCubeEdgeVertices)
	r.selectionVAO.SetVertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, 0)
	r.selectionVAO.Unbind()

	return r, nil
}

// unitCubeEdgeVertices is the 12-line wireframe of a unit cube from (0,0,0)
// to (1,1,1), drawn with gl.LINES.
var unitCubeEdgeVertices = []float32{
	0, 0, 0, 1, 0, 0,
	1, 0, 0, 1, 1, 0,
	1, 1, 0, 0, 1, 0,
	0, 1, 0, 0, 0, 0,

	0, 0, 1, 1, 0, 1,
	1, 0, 1, 1, 1, 1,
	1, 1, 1, 0, 1, 1,
	0, 1, 1, 0, 0, 1,

	0, 0, 0, 0, 0, 1,
	1, 0, 0, 1, 0, 1,
	1, 1, 0, 1, 1, 1,
	0, 1, 0, 0, 1, 1,
}

// DrawSelection ray-walks from the camera and draws a 12-line wireframe
// box around the first non-air block hit, per the block-selection overlay
// step of the per-frame flow. No-op if nothing is hit within
// RaycastMaxDistance.
func (r *Renderer) DrawSelection(blocks BlockSource, attrs voxel.BlockAttributes, view, proj mgl32.Mat4) {
	hit, ok := Raycast(blocks, attrs, r.camera.Position(), r.camera.FrontVector())
	if !ok {
		return
	}

	r.selectionShader.Use()
	r.selectionShader.SetMat4("view", view)
	r.selectionShader.SetMat4("projection", proj)
	model := mgl32.Translate3D(float32(hit.BlockX), float32(hit.BlockY), float32(hit.BlockZ))
	r.selectionShader.SetMat4("model", model)

	r.selectionVAO.Bind()
	gl.DrawArrays(gl.LINES, 0, int32(len(unitCubeEdgeVertices)/3))
	r.selectionVAO.Unbind()
}

// EnableBloom wires a BloomPass into the frame, per pkg/config.Bloom.
func (r *Renderer) EnableBloom(bp *BloomPass) {
	r.bloom = bp
	r.bloomActive = bp != nil
}

// ShouldClose reports whether the window wants to close.
func (r *Renderer) ShouldClose() bool { return r.window.ShouldClose() }

// Window exposes the underlying window for input polling.
func (r *Renderer) Window() *openglhelper.Window { return r.window }

// Camera exposes the active camera.
func (r *Renderer) Camera() *Camera { return r.camera }

// visibleEntry pairs a renderable mesh with its squared distance to the
// player chunk center, the sort key for step 2 of the per-frame flow.
type visibleEntry struct {
	mesh   *mesh.ChunkMesh
	pos    [3]int32
	distSq float64
}

// RenderFrame draws one frame given the set of chunks the LOD window
// manager reported as visible this frame, the player's world position,
// and an ambient-light color. attrs is optional (nil skips the
// block-selection overlay) since headless callers (tests, dedicated
// servers) have no block source to raycast against.
func (r *Renderer) RenderFrame(visible []lod.RenderableMesh, playerPos mgl32.Vec3, ambient mgl32.Vec3, attrs BlockSourceAttrs) {
	view := r.camera.ViewMatrix()
	proj := r.camera.ProjectionMatrix()

	entries := make([]visibleEntry, 0, len(visible))
	for _, v := range visible {
		dx := float64(v.Pos.WX) - float64(playerPos.X())
		dy := float64(v.Pos.WY) - float64(playerPos.Y())
		dz := float64(v.Pos.WZ) - float64(playerPos.Z())
		entries = append(entries, visibleEntry{
			mesh:   v.Mesh,
			pos:    [3]int32{v.Pos.WX, v.Pos.WY, v.Pos.WZ},
			distSq: dx*dx + dy*dy + dz*dz,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].distSq < entries[j].distSq })

	gl.Enable(gl.DEPTH_TEST)
	gl.ClearColor(0.45, 0.65, 0.85, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.vao.Bind()
	r.slabs.Faces.BeginRender()
	defer r.slabs.Faces.EndRender()

	r.drawPass(r.opaqueShader, entries, playerPos, view, proj, ambient, mesh.Opaque)
	r.drawPass(r.voxelModelShader, entries, playerPos, view, proj, ambient, mesh.VoxelModel)
	r.drawTransparent(entries, playerPos, view, proj, ambient)

	if attrs != nil {
		r.DrawSelection(attrs, attrs, view, proj)
	}

	if r.bloomActive && r.bloom != nil {
		r.bloom.Apply(0)
	}

	r.vao.Unbind()
	r.window.SwapBuffers()
	r.window.PollEvents()
}

// drawPass issues one DrawElementsBaseVertex per mesh for a single
// primitive kind, pushing per-mesh uniforms (model-relative position,
// visibility mask, voxel size, descriptor index) ahead of each draw.
func (r *Renderer) drawPass(shader *openglhelper.Shader, entries []visibleEntry, playerPos mgl32.Vec3, view, proj mgl32.Mat4, ambient mgl32.Vec3, kind mesh.Kind) {
	shader.Use()
	shader.SetMat4("view", view)
	shader.SetMat4("projection", proj)
	shader.SetVec3("ambient", ambient)

	for _, e := range entries {
		p := e.mesh.Primitives[kind]
		faceCount := p.Faces()
		if faceCount == 0 {
			continue
		}
		modelPos := mgl32.Vec3{
			float32(e.pos[0]) - playerPos.X(),
			float32(e.pos[1]) - playerPos.Y(),
			float32(e.pos[2]) - playerPos.Z(),
		}
		shader.SetVec3("modelPosition", modelPos)
		shader.SetInt("visibilityMask", int32(e.mesh.VisibilityMask))
		shader.SetInt("voxelSize", e.mesh.Chunk.Position.VoxelSize)
		shader.SetInt("chunkDataIndex", int32(e.mesh.DescriptorAlloc.Start))

		baseVertex := int32(p.Alloc.Start) * 4
		gl.DrawElementsBaseVertex(gl.TRIANGLES, int32(faceCount*6), gl.UNSIGNED_INT, nil, baseVertex)
	}
}

// drawTransparent re-sorts and re-uploads each mesh's transparent faces
// against the viewer's current cell on every frame before drawing, per the
// cull-then-bucket-sort policy; it does not check whether the viewer has
// crossed a cell since the previous sort.
func (r *Renderer) drawTransparent(entries []visibleEntry, playerPos mgl32.Vec3, view, proj mgl32.Mat4, ambient mgl32.Vec3) {
	r.transparentShader.Use()
	r.transparentShader.SetMat4("view", view)
	r.transparentShader.SetMat4("projection", proj)
	r.transparentShader.SetVec3("ambient", ambient)

	for _, e := range entries {
		p := e.mesh.Primitives[mesh.Transparent]
		faceCount := p.Faces()
		if faceCount == 0 {
			continue
		}

		viewerLocal := [3]int{
			int(playerPos.X()) - int(e.pos[0]),
			int(playerPos.Y()) - int(e.pos[1]),
			int(playerPos.Z()) - int(e.pos[2]),
		}
		sorted := sortTransparentFaces(p.AllFaces(), viewerLocal)
		if err := p.ReorderAndUpload(sorted, r.slabs.Faces); err != nil {
			continue
		}

		modelPos := mgl32.Vec3{
			float32(e.pos[0]) - playerPos.X(),
			float32(e.pos[1]) - playerPos.Y(),
			float32(e.pos[2]) - playerPos.Z(),
		}
		r.transparentShader.SetVec3("modelPosition", modelPos)
		r.transparentShader.SetInt("visibilityMask", int32(e.mesh.VisibilityMask))
		r.transparentShader.SetInt("chunkDataIndex", int32(e.mesh.DescriptorAlloc.Start))

		baseVertex := int32(p.Alloc.Start) * 4
		gl.DrawElementsBaseVertex(gl.TRIANGLES, int32(len(sorted)*6), gl.UNSIGNED_INT, nil, baseVertex)
	}
}

// BlockSourceAttrs bundles the two collaborators the selection raycast
// needs: somewhere to resolve a world cell to a block, and the block
// registry to resolve that block's model bounds.
type BlockSourceAttrs interface {
	BlockSource
	voxel.BlockAttributes
}

// ToggleWireframeMode switches between solid and wireframe polygon modes.
func (r *Renderer) ToggleWireframeMode() {
	r.isWireframeMode = !r.isWireframeMode
	if r.isWireframeMode {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
}

// Cleanup releases every GL resource the renderer owns.
func (r *Renderer) Cleanup() {
	if r.isClosed {
		return
	}
	r.vao.Delete()
	r.opaqueShader.Delete()
	r.voxelModelShader.Delete()
	r.transparentShader.Delete()
	r.selectionShader.Delete()
	if r.bloom != nil {
		r.bloom.Cleanup()
	}
	r.window.Close()
	r.isClosed = true
}

func (r *Renderer) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		r.window.GLFWWindow().SetShouldClose(true)
	}
	if key == glfw.KeyC && action == glfw.Press {
		r.window.ToggleMouseCaptured()
		r.camera.ResetMouseState()
	}
	if key == glfw.KeyX && action == glfw.Press {
		r.ToggleWireframeMode()
	}
}

func (r *Renderer) cursorPosCallback(_ *glfw.Window, xpos, ypos float64) {
	if r.window.IsMouseCaptured() {
		r.camera.HandleMouseMovement(xpos, ypos)
	}
}

func (r *Renderer) scrollCallback(_ *glfw.Window, _, yoffset float64) {
	r.camera.HandleMouseScroll(yoffset)
}

func (r *Renderer) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	r.window.OnResize(width, height)
	r.camera.UpdateProjectionMatrix(width, height)
}
