package api

var WriteJSON = writeJSON
