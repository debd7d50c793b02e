package auth

import "github.com/alexedwards/argon2id"

// Perfil Argon2id das senhas do painel: 64 MiB, 3 passes, thread única.
// Os parâmetros viajam codificados dentro do próprio hash, então podem
// mudar sem invalidar senhas já gravadas.
var perfilSenha = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash codifica a senha com Argon2id.
func Hash(senha string) (string, error) {
	return argon2id.CreateHash(senha, perfilSenha)
}

// Verify compara a senha em claro com o hash armazenado.
func Verify(senha, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(senha, hash)
}
