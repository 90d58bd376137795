package renderer

// Config describes the GPU shader inputs provided by the caller.
// ShaderSource must be a single-source shader that supports:
//   - stage defines: VERTEX, FRAGMENT
//   - pass defines: PASS_SURVEY, PASS_RAYTRACE, PASS_LINES
//   - projection defines: PROJ_ORTHOGRAPHIC, PROJ_GNOMONIC, PROJ_MOLLWEIDE
//   - uniforms: uWorldToView, uPlaneScale, uTime, uOpacity, uTint, uTex,
//     uBaseSlots (PASS_RAYTRACE) and uColor (PASS_LINES)
type Config struct {
	ShaderSource string
}
