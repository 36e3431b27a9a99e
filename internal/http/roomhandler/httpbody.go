package roomhandler

type CreateRoomBody struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Password string `json:"password" example:"swordfish"`
} // @name CreateRoomRequest

type JoinRoomBody struct {
	Username string `json:"username" binding:"required" example:"bob"`
	Password string `json:"password" example:"swordfish"`
} // @name JoinRoomRequest

type CreateRoomResponse struct {
	Code  string `json:"code"  example:"AB12"`
	Token string `json:"token" example:"q8zfd0YHZuX4F81oVWCqqg=="`
} // @name CreateRoomResponse

type JoinRoomResponse struct {
	Token string `json:"token" example:"q8zfd0YHZuX4F81oVWCqqg=="`
} // @name JoinRoomResponse

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse
