package main

const vsBlockSource = `#version 300 es
	layout (location = 0) in vec3 aVertexPosition;
	layout (location = 1) in vec2 aTextureCoord;
	layout (location = 2) in float aShade;
	uniform mat4 uModelViewMatrix;
	uniform mat4 uProjectionMatrix;
	out highp vec2 vTextureCoord;
	out lowp float vShade;

	void main(void) {
		gl_Position = uProjectionMatrix * uModelViewMatrix * vec4(aVertexPosition, 1.0);
		vTextureCoord = aTextureCoord;
		vShade = aShade;
	}
`

const fsBlockSource = `#version 300 es
	in highp vec2 vTextureCoord;
	in lowp float vShade;
	uniform sampler2D uSampler;
	out lowp vec4 outColor;

	void main(void) {
		lowp vec4 c = texture(uSampler, vTextureCoord);
		// Cutout textures (leaves, glass edges) are drawn without sorting.
		if (c.a < 0.1) {
			discard;
		}
		outColor = vec4(c.rgb * vShade, c.a);
	}
`

const vsGridSource = `#version 300 es
	layout (location = 0) in vec3 aVertexPosition;
	uniform mat4 uModelViewMatrix;
	uniform mat4 uProjectionMatrix;

	void main(void) {
		gl_Position = uProjectionMatrix * uModelViewMatrix * vec4(aVertexPosition, 1.0);
	}
`

const fsGridSource = `#version 300 es
	uniform lowp vec3 uColor;
	out lowp vec4 outColor;

	void main(void) {
		outColor = vec4(uColor, 1.0);
	}
`
