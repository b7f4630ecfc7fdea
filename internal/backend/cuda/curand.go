package cuda

// curandRngType_t CURAND_RNG_PSEUDO_DEFAULT.
const curandRngPseudoDefault int32 = 100

// curandAPI holds the cuRAND host API entry points used by the backend.
type curandAPI struct {
	lib *library

	createGenerator  func(gen *uintptr, rngType int32) int32
	destroyGenerator func(gen uintptr) int32
	setSeed          func(gen uintptr, seed uint64) int32
	generateNormal   func(gen uintptr, out uintptr, n uintptr, mean, stddev float32) int32
}

func loadCurand(path string) (*curandAPI, error) {
	lib, err := openLibrary(path, defaultCurandLibraries)
	if err != nil {
		return nil, err
	}

	api := &curandAPI{lib: lib}
	err = lib.bind(
		symbol{&api.createGenerator, "curandCreateGenerator"},
		symbol{&api.destroyGenerator, "curandDestroyGenerator"},
		symbol{&api.setSeed, "curandSetPseudoRandomGeneratorSeed"},
		symbol{&api.generateNormal, "curandGenerateNormal"},
	)
	if err != nil {
		_ = lib.close()
		return nil, err
	}
	return api, nil
}

// normalCount rounds n up to the even count curandGenerateNormal requires.
func normalCount(n int) int {
	return n + n%2
}
