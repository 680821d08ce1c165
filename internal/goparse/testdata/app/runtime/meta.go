package rt

type Meta struct {
	Version int
}
