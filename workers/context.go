package workers

import "github.com/gin-gonic/gin"

const poolKey = "analysis_pool"

func SetPoolToContext(pool *AnalysisPool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(poolKey, pool)
		c.Next()
	}
}

func PoolInstance(c *gin.Context) *AnalysisPool {
	v, ok := c.Get(poolKey)
	if !ok {
		return nil
	}
	pool, _ := v.(*AnalysisPool)
	return pool
}
