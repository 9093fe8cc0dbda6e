package domain

type Role int

const (
	RoleGuesser Role = iota
	RoleArtist
)

func (r Role) String() string {
	if r == RoleArtist {
		return "artist"
	}
	return "guesser"
}

// ClientPlayer is the public view of a player that is sent over the wire.
type ClientPlayer struct {
	Guid  string `json:"guid"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Score int    `json:"score"`
}

type Figure struct {
	Source  string   `json:"src"`
	Aliases []string `json:"aliases"`
}

type RoomDescription struct {
	Name         string `json:"name"`
	PlayersCount int    `json:"playersCount"`
	MaxPlayers   int    `json:"maxPlayers"`
}
