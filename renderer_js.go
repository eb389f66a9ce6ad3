package main

import (
	"syscall/js"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/seqsense/pcgol/mat"
	webgl "github.com/seqsense/webgl-go"

	"github.com/seqsense/structviewer/structure"
)

// glRenderer draws one structure with WebGL2. Geometry is built once at
// construction.
type glRenderer struct {
	gl  *webgl.WebGL
	cfg renderConfig

	programBlock, programGrid webgl.Program

	blockModelViewLoc, blockProjectionLoc, blockSamplerLoc webgl.Location
	gridModelViewLoc, gridProjectionLoc, gridColorLoc      webgl.Location

	blockBuf, gridBuf             webgl.Buffer
	nBlockVertices, nGridVertices int

	texture webgl.Texture
}

func newGLRenderer(gl *webgl.WebGL, cfg renderConfig, s *structure.Structure, res blockResources) (*glRenderer, error) {
	programBlock, err := newProgram(gl, vsBlockSource, fsBlockSource)
	if err != nil {
		return nil, err
	}
	programGrid, err := newProgram(gl, vsGridSource, fsGridSource)
	if err != nil {
		gl.JS().Call("deleteProgram", js.Value(programBlock))
		return nil, err
	}

	r := &glRenderer{
		gl:           gl,
		cfg:          cfg,
		programBlock: programBlock,
		programGrid:  programGrid,

		blockModelViewLoc:  gl.GetUniformLocation(programBlock, "uModelViewMatrix"),
		blockProjectionLoc: gl.GetUniformLocation(programBlock, "uProjectionMatrix"),
		blockSamplerLoc:    gl.GetUniformLocation(programBlock, "uSampler"),
		gridModelViewLoc:   gl.GetUniformLocation(programGrid, "uModelViewMatrix"),
		gridProjectionLoc:  gl.GetUniformLocation(programGrid, "uProjectionMatrix"),
		gridColorLoc:       gl.GetUniformLocation(programGrid, "uColor"),

		blockBuf: gl.CreateBuffer(),
		gridBuf:  gl.CreateBuffer(),
	}

	blockVertices := buildStructureMesh(s, res)
	r.nBlockVertices = len(blockVertices) / floatsPerVertex
	if len(blockVertices) > 0 {
		gl.BindBuffer(gl.ARRAY_BUFFER, r.blockBuf)
		gl.BufferData(gl.ARRAY_BUFFER, webgl.Float32ArrayBuffer(blockVertices), gl.STATIC_DRAW)
	}

	gridVertices := buildGridMesh(s.Size())
	r.nGridVertices = len(gridVertices) / 3
	if len(gridVertices) > 0 {
		gl.BindBuffer(gl.ARRAY_BUFFER, r.gridBuf)
		gl.BufferData(gl.ARRAY_BUFFER, webgl.Float32ArrayBuffer(gridVertices), gl.STATIC_DRAW)
	}

	r.texture = uploadAtlas(gl, res)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	if gl.IsContextLost() {
		return nil, errContextLost
	}
	return r, nil
}

func uploadAtlas(gl *webgl.WebGL, res blockResources) webgl.Texture {
	img := res.Atlas().Image
	b := img.Bounds()
	pix := js.Global().Get("Uint8ClampedArray").New(len(img.Pix))
	js.CopyBytesToJS(pix, img.Pix)
	imageData := js.Global().Get("ImageData").New(pix, b.Dx(), b.Dy())

	tex := gl.CreateTexture()
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, gl.RGBA, gl.UNSIGNED_BYTE, imageData)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D,
		webgl.TextureParameter(gl.JS().Get("TEXTURE_MAG_FILTER").Int()), gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	return tex
}

func (r *glRenderer) SetViewport(x, y, width, height int) {
	gl := r.gl
	gl.Viewport(x, y, width, height)

	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	projection := mat.Mat4(mgl32.Perspective(
		mgl32.DegToRad(float32(r.cfg.FOV)), aspect,
		float32(r.cfg.Near), float32(r.cfg.Far),
	))
	gl.UseProgram(r.programBlock)
	gl.UniformMatrix4fv(r.blockProjectionLoc, false, projection)
	gl.UseProgram(r.programGrid)
	gl.UniformMatrix4fv(r.gridProjectionLoc, false, projection)
}

func (r *glRenderer) DrawGrid(view mgl32.Mat4) {
	gl := r.gl
	c := r.cfg.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if !r.cfg.Grid || r.nGridVertices == 0 {
		return
	}
	gl.UseProgram(r.programGrid)
	gl.UniformMatrix4fv(r.gridModelViewLoc, false, mat.Mat4(view))
	gl.Uniform3fv(r.gridColorLoc, mat.Vec3(r.cfg.GridColor))

	gl.BindBuffer(gl.ARRAY_BUFFER, r.gridBuf)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(0)
	gl.JS().Call("disableVertexAttribArray", 1)
	gl.JS().Call("disableVertexAttribArray", 2)
	gl.DrawArrays(gl.LINES, 0, r.nGridVertices)
}

func (r *glRenderer) DrawStructure(view mgl32.Mat4) {
	if r.nBlockVertices == 0 {
		return
	}
	gl := r.gl
	gl.UseProgram(r.programBlock)
	gl.UniformMatrix4fv(r.blockModelViewLoc, false, mat.Mat4(view))

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.texture)
	gl.Uniform1i(r.blockSamplerLoc, 0)

	gl.BindBuffer(gl.ARRAY_BUFFER, r.blockBuf)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, vertexStride, 0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, vertexStride, 3*4)
	gl.VertexAttribPointer(2, 1, gl.FLOAT, false, vertexStride, 5*4)
	gl.EnableVertexAttribArray(0)
	gl.EnableVertexAttribArray(1)
	gl.EnableVertexAttribArray(2)
	gl.DrawArrays(gl.TRIANGLES, 0, r.nBlockVertices)
}

func (r *glRenderer) Release() {
	gl := r.gl.JS()
	gl.Call("deleteProgram", js.Value(r.programBlock))
	gl.Call("deleteProgram", js.Value(r.programGrid))
	gl.Call("deleteBuffer", js.Value(r.blockBuf))
	gl.Call("deleteBuffer", js.Value(r.gridBuf))
	if r.texture != nil {
		gl.Call("deleteTexture", js.Value(*r.texture))
		r.texture = nil
	}
}
