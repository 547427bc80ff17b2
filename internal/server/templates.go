package server

import "html/template"

var pages = template.Must(template.New("pages").Parse(`
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}} - LLM Admin</title></head>
<body>{{end}}

{{define "foot"}}</body>
</html>{{end}}

{{define "errors"}}{{if .Error}}<p class="error" role="alert">{{.Error}}</p>{{end}}{{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}{{end}}

{{define "login"}}{{template "head" .}}
<h1>Sign in</h1>
{{template "errors" .}}
<form method="post" action="/login">
  <input type="hidden" name="redirect" value="{{.Redirect}}">
  <label>Email <input type="email" name="email" value="{{.Email}}" required></label>
  <label>Password <input type="password" name="password" required></label>
  <button type="submit">Sign in</button>
</form>
<p>No account? <a href="/register">Register</a></p>
{{template "foot" .}}{{end}}

{{define "register"}}{{template "head" .}}
<h1>Create account</h1>
{{template "errors" .}}
<form method="post" action="/register">
  <label>Name <input type="text" name="name" value="{{.Name}}" required></label>
  <label>Email <input type="email" name="email" value="{{.Email}}" required></label>
  <label>Password <input type="password" name="password" minlength="6" required></label>
  <button type="submit">Register</button>
</form>
<p>Already registered? <a href="/login">Sign in</a></p>
{{template "foot" .}}{{end}}

{{define "dashboard"}}{{template "head" .}}
<h1>Dashboard</h1>
<dl>
  <dt>Name</dt><dd>{{.User.Name}}</dd>
  <dt>Email</dt><dd>{{.User.Email}}</dd>
  <dt>Role</dt><dd>{{.User.Role}}</dd>
</dl>
{{if .User.IsAdmin}}<p><a href="/api/users">Users</a> <a href="/api/groups">Groups</a></p>{{end}}
<form method="post" action="/logout"><button type="submit">Sign out</button></form>
{{template "foot" .}}{{end}}
`))
