package handler

import "net/http"

func LoginHandler(w http.ResponseWriter, r *http.Request) {}

func getUserHandler(w http.ResponseWriter, r *http.Request) {}

func ListOrdersHandler(w http.ResponseWriter, r *http.Request) {}
